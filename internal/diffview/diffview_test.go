package diffview

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestStateDiff_Identical(t *testing.T) {
	state := `{"totals":{"clones":10}}`

	assert.Empty(t, StateDiff(state, state))
}

func TestStateDiff_ChangedLines(t *testing.T) {
	// Disable ANSI sequences so assertions see plain text.
	prev := color.NoColor
	color.NoColor = true

	t.Cleanup(func() { color.NoColor = prev })

	before := "\"clones\": 10\n\"views\": 40\n"
	after := "\"clones\": 15\n\"views\": 40\n"

	diff := StateDiff(before, after)
	assert.Contains(t, diff, `- "clones": 10`)
	assert.Contains(t, diff, `+ "clones": 15`)
	assert.NotContains(t, diff, `"views"`, "unchanged lines are elided")
}

func TestStateDiff_PureAddition(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true

	t.Cleanup(func() { color.NoColor = prev })

	diff := StateDiff("line-a\n", "line-a\nline-b\n")
	assert.Contains(t, diff, "+ line-b")
	assert.NotContains(t, diff, "- ")
}
