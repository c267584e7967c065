// Package badge builds shields.io endpoint badge documents from
// reconciled traffic totals. Badges are derived, read-only projections:
// they are rewritten from scratch every run and never read back.
package badge

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// EndpointSchemaVersion is the schema version of the shields.io
// endpoint badge format.
const EndpointSchemaVersion = 1

// Color thresholds: badges shift color as the counter grows.
const (
	brightGreenAt = 10000
	greenAt       = 1000
	yellowGreenAt = 100
)

// Endpoint is a shields.io endpoint badge document.
type Endpoint struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
}

// New builds a badge for label with a humanized count message.
func New(label string, count int) Endpoint {
	return Endpoint{
		SchemaVersion: EndpointSchemaVersion,
		Label:         label,
		Message:       FormatCount(count),
		Color:         colorFor(count),
	}
}

// Placeholder builds the zero-count badge written at gist creation time,
// before the first collection run.
func Placeholder(label string) Endpoint {
	return Endpoint{
		SchemaVersion: EndpointSchemaVersion,
		Label:         label,
		Message:       "0",
		Color:         "blue",
	}
}

// FormatCount renders a count the way shields.io badges conventionally
// do: exact below 1000, compact SI above ("12.3k").
func FormatCount(count int) string {
	if count < 1000 {
		return humanize.Comma(int64(count))
	}

	compact := humanize.SIWithDigits(float64(count), 1, "")

	return strings.ReplaceAll(compact, " ", "")
}

func colorFor(count int) string {
	switch {
	case count >= brightGreenAt:
		return "brightgreen"
	case count >= greenAt:
		return "green"
	case count >= yellowGreenAt:
		return "yellowgreen"
	default:
		return "blue"
	}
}
