// Package calculator maintains the persistent FMV Calculator table: merging
// matched records in and keeping the computed columns present.
package calculator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/whyumesh/FMV/internal/identity"
	"github.com/whyumesh/FMV/internal/matching"
	"github.com/whyumesh/FMV/internal/table"
)

// Computed columns the scoring and rate stages fill in.
const (
	ColTotalScore = "Score based on selection mentioned criteria"
	ColRange      = "Range"
	ColTier       = "Tier"
	ColRate       = "Rate of Honorarium"
)

const criteriaCount = 9

// ScoreColumns returns "Score 1" through "Score 9".
func ScoreColumns() []string {
	cols := make([]string, 0, criteriaCount)
	for i := 1; i <= criteriaCount; i++ {
		cols = append(cols, fmt.Sprintf("Score %d", i))
	}
	return cols
}

// EnsureComputedColumns appends the score, range, tier and rate columns when
// the calculator does not carry them yet, returning the ones added.
func EnsureComputedColumns(t *table.Table) []string {
	cols := append(ScoreColumns(), ColTotalScore, ColRange, ColTier, ColRate)
	return t.EnsureColumns(cols...)
}

// Stats carries the merge accounting for step logging.
type Stats struct {
	Appended   int
	BackFilled int
	Skipped    int
}

// Merge folds matched records into the calculator. New identities are
// appended in the calculator's column order, blank-padding columns the
// record does not carry and dropping fields with no calculator column.
// Identities already present are only touched when the years-of-experience
// trigger column is blank; then every non-blank incoming field back-fills
// its column, never overwriting a non-blank cell. Rows are never removed.
func Merge(target *table.Table, matched []matching.Record, logger *zap.Logger) Stats {
	existing := make(map[string]table.Row, target.Len())
	for _, row := range target.Rows {
		if email := identity.Normalize(row[matching.ColHCPEmail]); email != "" {
			existing[email] = row
		}
	}

	var stats Stats
	for _, rec := range matched {
		incoming := rec.Fields.Clone()
		incoming[matching.ColDVLCode] = rec.DVLCode
		incoming[matching.ColHCPEmail] = rec.Email

		row, ok := existing[rec.Email]
		if !ok {
			appended := make(table.Row, len(target.Columns()))
			for _, col := range target.Columns() {
				appended[col] = ""
			}
			for col, v := range incoming {
				if target.HasColumn(col) {
					appended[col] = v
				}
			}
			target.Append(appended)
			existing[rec.Email] = appended
			stats.Appended++
			continue
		}

		if strings.TrimSpace(row[matching.ColYears]) != "" {
			stats.Skipped++
			continue
		}

		filled := 0
		for col, v := range incoming {
			if !target.HasColumn(col) || strings.TrimSpace(v) == "" {
				continue
			}
			if strings.TrimSpace(row[col]) != "" {
				continue
			}
			row[col] = v
			filled++
		}
		if filled > 0 {
			stats.BackFilled++
			if logger != nil {
				logger.Debug("back-filled existing calculator row",
					zap.String("hcp_email", rec.Email),
					zap.Int("fields", filled),
				)
			}
		} else {
			stats.Skipped++
		}
	}

	return stats
}
