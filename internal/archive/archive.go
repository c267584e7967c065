// Package archive rolls completed calendar months of daily history
// into compressed attachments before retention pruning discards them.
// Each month becomes one write-once gist file, so the full daily ledger
// survives even though the live document only retains a few weeks.
package archive

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/DazzleML/ghtraf/pkg/persist"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

// Month is a calendar month in "2006-01" form.
type Month string

// MonthOf returns the month a date falls in.
func MonthOf(date stats.Date) Month {
	return Month(string(date)[:7])
}

// first returns the month's first calendar day.
func (m Month) first() stats.Date {
	return stats.Date(string(m) + "-01")
}

// FileName is the gist file name for a month's rollup.
func FileName(m Month) string {
	return fmt.Sprintf("traffic-%s.json.lz4.b64", m)
}

// IsRollupFile reports whether a gist file name is a monthly rollup.
func IsRollupFile(name string) bool {
	return strings.HasPrefix(name, "traffic-") && strings.HasSuffix(name, ".json.lz4.b64")
}

// Rollup is one archived month of daily history.
type Rollup struct {
	Month   Month               `json:"month"`
	Records []stats.DailyRecord `json:"records"`
}

// CompletedMonths groups the daily history into rollups for every
// month that has fully ended before today. The current month is always
// excluded; a month whose early days were pruned on an earlier run (and
// that is not the tracking-start month) is excluded too, because its
// rollup would silently miss days.
//
// pruned holds the entries the current reconciliation dropped from the
// ledger, in date order. They still belong to their months: with a
// retention close to a month's length, a month's first days fall out of
// the ledger on the very run that completes it, so archiving from the
// post-prune document alone would lose them.
func CompletedMonths(doc *stats.Document, pruned []stats.DailyRecord, today stats.Date) []Rollup {
	currentMonth := MonthOf(today)

	history := make([]stats.DailyRecord, 0, len(pruned)+len(doc.DailyHistory))
	history = append(history, pruned...)
	history = append(history, doc.DailyHistory...)

	byMonth := make(map[Month][]stats.DailyRecord)
	for _, rec := range history {
		month := MonthOf(rec.Date)
		if month == currentMonth {
			continue
		}

		byMonth[month] = append(byMonth[month], rec)
	}

	var oldest stats.Date
	if len(history) > 0 {
		oldest = history[0].Date
	}

	rollups := make([]Rollup, 0, len(byMonth))

	for month, records := range byMonth {
		covered := !month.first().Before(oldest) ||
			MonthOf(doc.TrackingStart) == month

		if !covered {
			continue
		}

		rollups = append(rollups, Rollup{Month: month, Records: records})
	}

	sort.Slice(rollups, func(i, j int) bool {
		return rollups[i].Month < rollups[j].Month
	})

	return rollups
}

// Encode serializes a rollup as LZ4-compressed JSON, base64-armored so
// it survives gist text storage.
func Encode(rollup Rollup) (string, error) {
	var buf bytes.Buffer

	codec := persist.NewLZ4Codec()
	if err := codec.Encode(&buf, rollup); err != nil {
		return "", fmt.Errorf("encode rollup %s: %w", rollup.Month, err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode.
func Decode(content string) (Rollup, error) {
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return Rollup{}, fmt.Errorf("decode rollup armor: %w", err)
	}

	var rollup Rollup

	codec := persist.NewLZ4Codec()
	if err := codec.Decode(bytes.NewReader(raw), &rollup); err != nil {
		return Rollup{}, fmt.Errorf("decode rollup: %w", err)
	}

	return rollup, nil
}
