// Package diffview renders a line-level diff between the persisted
// state document and the state a dry run would have written. The
// output lets an operator audit exactly what a collection run will
// change before letting it touch the gist.
package diffview

import (
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// StateDiff computes a line-level diff between two serialized state
// documents and renders it with +/- prefixes, colorized when the
// writer supports it. Identical inputs yield an empty string.
func StateDiff(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var b strings.Builder

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			writePrefixed(&b, diff.Text, "+", color.New(color.FgGreen))
		case diffmatchpatch.DiffDelete:
			writePrefixed(&b, diff.Text, "-", color.New(color.FgRed))
		case diffmatchpatch.DiffEqual:
			// Unchanged spans are elided; the document is mostly
			// stable ledger lines and printing them drowns the signal.
		}
	}

	return b.String()
}

func writePrefixed(b *strings.Builder, text, prefix string, c *color.Color) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString(c.Sprintf("%s %s", prefix, line))
		b.WriteString("\n")
	}
}
