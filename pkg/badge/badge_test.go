package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Parallel()

	b := New("clones", 42)

	assert.Equal(t, EndpointSchemaVersion, b.SchemaVersion)
	assert.Equal(t, "clones", b.Label)
	assert.Equal(t, "42", b.Message)
	assert.Equal(t, "blue", b.Color)
}

func TestFormatCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		count int
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1200, "1.2k"},
		{15300, "15.3k"},
		{2000000, "2M"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatCount(tc.count), "count %d", tc.count)
	}
}

func TestColorThresholds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "blue", New("x", 99).Color)
	assert.Equal(t, "yellowgreen", New("x", 100).Color)
	assert.Equal(t, "green", New("x", 1000).Color)
	assert.Equal(t, "brightgreen", New("x", 10000).Color)
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	b := Placeholder("views")

	assert.Equal(t, "views", b.Label)
	assert.Equal(t, "0", b.Message)
	assert.Equal(t, "blue", b.Color)
}
