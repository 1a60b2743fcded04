// Package scoring computes the nine criterion scores, the total and the
// compensation tier for calculator rows.
package scoring

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/whyumesh/FMV/internal/calculator"
	"github.com/whyumesh/FMV/internal/logger"
	"github.com/whyumesh/FMV/internal/table"
)

// Tier bands for the summed score. Thresholds are inclusive upper bounds.
const (
	Tier1 = "Tier 1"
	Tier2 = "Tier 2"
	Tier3 = "Tier 3"
	Tier4 = "Tier 4"
)

// Criterion pairs a calculator column with its answer rubric. Answer text is
// an opaque key: anything not in the rubric scores zero.
type Criterion struct {
	Name   string
	Column string
	Rubric map[string]int
}

// Scores is the result of scoring one row.
type Scores struct {
	PerCriterion []int
	Total        int
	Tier         string
}

// Score evaluates one calculator row against the criteria. Pure and total:
// lookups default to zero, every row gets a tier.
func Score(row table.Row, criteria []Criterion) Scores {
	s := Scores{PerCriterion: make([]int, len(criteria))}
	for i, c := range criteria {
		s.PerCriterion[i] = c.Rubric[strings.TrimSpace(row[c.Column])]
		s.Total += s.PerCriterion[i]
	}
	s.Tier = TierFor(s.Total)
	return s
}

// TierFor bands a total score (0-54) into a tier.
func TierFor(total int) string {
	switch {
	case total <= 13:
		return Tier1
	case total <= 26:
		return Tier2
	case total <= 40:
		return Tier3
	default:
		return Tier4
	}
}

// Apply scores every calculator row in place, writing Score 1..9, the total,
// the range and the tier columns. Non-blank answers missing from a rubric
// are logged for observability but still score zero.
func Apply(target *table.Table, criteria []Criterion, log *zap.Logger) {
	scoreCols := calculator.ScoreColumns()
	for _, row := range target.Rows {
		s := Score(row, criteria)

		if log != nil {
			for i, c := range criteria {
				answer := strings.TrimSpace(row[c.Column])
				if answer != "" && s.PerCriterion[i] == 0 {
					if _, known := c.Rubric[answer]; !known {
						log.Warn("answer text not in rubric, scoring zero",
							zap.String("criterion", c.Name),
							zap.String("answer", logger.TruncateForLog(answer, 80)),
						)
					}
				}
			}
		}

		for i, v := range s.PerCriterion {
			row[scoreCols[i]] = strconv.Itoa(v)
		}
		row[calculator.ColTotalScore] = strconv.Itoa(s.Total)
		row[calculator.ColRange] = strconv.Itoa(s.Total) + "-" + strconv.Itoa(s.Total)
		row[calculator.ColTier] = s.Tier
	}
}
