package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2026-01-09")

	require.NoError(t, err)
	assert.Equal(t, Date("2026-01-09"), d)

	_, err = ParseDate("01/09/2026")
	require.Error(t, err)

	_, err = ParseDate("2026-13-01")
	require.Error(t, err)
}

func TestDateOf_TruncatesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-8", -8*3600)

	// 23:30 local on Jan 8 is already Jan 9 in UTC.
	d := DateOf(time.Date(2026, 1, 8, 23, 30, 0, 0, loc))

	assert.Equal(t, Date("2026-01-09"), d)
}

func TestDate_AddDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Date("2026-01-01"), Date("2026-01-10").AddDays(-9))
	assert.Equal(t, Date("2025-12-31"), Date("2026-01-01").AddDays(-1))
	assert.Equal(t, Date("2026-03-01"), Date("2026-02-28").AddDays(1))
}

func TestDate_Ordering(t *testing.T) {
	t.Parallel()

	assert.True(t, Date("2025-12-31").Before("2026-01-01"))
	assert.True(t, Date("2026-01-02").After("2026-01-01"))
	assert.False(t, Date("2026-01-01").Before("2026-01-01"))
}
