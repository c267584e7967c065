package persist

// Persister saves and restores one named document, such as the local
// backup of the accumulation state, through a Codec. The name and
// codec fix the on-disk file; only the directory varies per call.
type Persister[T any] struct {
	name  string
	codec Codec
}

// NewPersister creates a persister for files named after name plus the
// codec's extension.
func NewPersister[T any](name string, codec Codec) *Persister[T] {
	return &Persister[T]{
		name:  name,
		codec: codec,
	}
}

// Save writes the document into dir atomically.
func (p *Persister[T]) Save(dir string, doc *T) error {
	return SaveState(dir, p.name, p.codec, doc)
}

// Load reads the persisted document back from dir.
func (p *Persister[T]) Load(dir string) (*T, error) {
	var doc T

	if err := LoadState(dir, p.name, p.codec, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}
