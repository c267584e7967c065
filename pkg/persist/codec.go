// Package persist provides codec-based file persistence for state
// documents. Writes are atomic: state is encoded to a temp file in the
// target directory and renamed into place, so a crashed run can never
// leave a half-written document behind.
package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	lz4Extension  = ".json.lz4"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// Codec defines how state is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g., ".json").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	decoder := json.NewDecoder(r)

	err := decoder.Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// LZ4Codec implements Codec as LZ4-framed JSON. Used for archive files,
// which grow without bound and are read rarely.
type LZ4Codec struct{}

// NewLZ4Codec creates an LZ4 codec.
func NewLZ4Codec() *LZ4Codec {
	return &LZ4Codec{}
}

// Encode implements Codec.Encode: JSON inside an LZ4 frame.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := json.NewEncoder(zw).Encode(state)
	if err != nil {
		return fmt.Errorf("lz4 json encode: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode for LZ4-framed JSON.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	err := json.NewDecoder(lz4.NewReader(r)).Decode(state)
	if err != nil {
		return fmt.Errorf("lz4 json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for LZ4-compressed JSON files.
func (c *LZ4Codec) Extension() string {
	return lz4Extension
}

// SaveState atomically saves the given state to a file in the specified
// directory. The filename is constructed from the basename and the
// codec's extension. The state is written to a temp file first and
// renamed into place, all-or-nothing.
func SaveState(dir, basename string, codec Codec, state any) error {
	filename := basename + codec.Extension()
	path := filepath.Join(dir, filename)

	tmp, err := os.CreateTemp(dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	err = codec.Encode(tmp, state)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("encode state: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("close temp state file: %w", err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// LoadState loads state from a file in the specified directory.
// The filename is constructed from the basename and the codec's extension.
// The state parameter must be a pointer to the target struct.
func LoadState(dir, basename string, codec Codec, state any) error {
	filename := basename + codec.Extension()
	path := filepath.Join(dir, filename)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
