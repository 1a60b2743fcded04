// Package rates resolves (specialty, tier) to an honorarium via a cascading
// lookup over the OUS FMV rate sheet, degrading to per-tier defaults.
package rates

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/whyumesh/FMV/internal/table"
)

// SpecialtyColumn names the lookup column of the rate sheet; the remaining
// columns are one per tier.
const SpecialtyColumn = "HCP Specialty"

// Rate used when even the per-tier default table has no entry for the tier.
const fallbackRate = 5000

// Conservative defaults applied when a specialty has no row at all.
var defaultRates = map[string]int{
	"Tier 1": 5000,
	"Tier 2": 7000,
	"Tier 3": 9000,
	"Tier 4": 12000,
}

// Table is the loaded rate sheet plus the effective per-tier defaults.
type Table struct {
	columns  []string
	rows     []table.Row
	defaults map[string]int
}

// New wraps a loaded rate sheet. Entries in overrides replace the built-in
// per-tier defaults.
func New(t *table.Table, overrides map[string]int) *Table {
	defaults := make(map[string]int, len(defaultRates))
	for tier, rate := range defaultRates {
		defaults[tier] = rate
	}
	for tier, rate := range overrides {
		defaults[tier] = rate
	}
	return &Table{columns: t.Columns(), rows: t.Rows, defaults: defaults}
}

// A strategy locates the row for a specialty. Strategies run in order; the
// first hit wins.
type strategy func(specialty string, rows []table.Row) (table.Row, bool)

var strategies = []strategy{matchExact, matchFold, matchContains}

func matchExact(specialty string, rows []table.Row) (table.Row, bool) {
	for _, row := range rows {
		if row[SpecialtyColumn] == specialty {
			return row, true
		}
	}
	return nil, false
}

func matchFold(specialty string, rows []table.Row) (table.Row, bool) {
	for _, row := range rows {
		if strings.EqualFold(row[SpecialtyColumn], specialty) {
			return row, true
		}
	}
	return nil, false
}

// matchContains treats the requested specialty as a fragment of the sheet's
// entry, which absorbs suffix drift like "Cardiology" vs "Cardiology /
// Interventional Cardiology".
func matchContains(specialty string, rows []table.Row) (table.Row, bool) {
	needle := strings.ToLower(specialty)
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row[SpecialtyColumn]), needle) {
			return row, true
		}
	}
	return nil, false
}

// Resolve returns the honorarium for a specialty and tier. It never fails:
// an unknown specialty falls back to the per-tier default, a missing tier
// column or unusable cell degrades to zero.
func (t *Table) Resolve(specialty, tier string, logger *zap.Logger) int {
	specialty = strings.TrimSpace(specialty)

	var row table.Row
	found := false
	if specialty != "" {
		for _, match := range strategies {
			if r, ok := match(specialty, t.rows); ok {
				row, found = r, true
				break
			}
		}
	}

	if !found {
		if logger != nil {
			logger.Warn("specialty not found in rates table, using default rate",
				zap.String("specialty", specialty),
				zap.String("tier", tier),
			)
		}
		if rate, ok := t.defaults[tier]; ok {
			return rate
		}
		return fallbackRate
	}

	if !t.hasColumn(tier) {
		if logger != nil {
			logger.Warn("tier column missing from rates table",
				zap.String("tier", tier),
				zap.Strings("columns", t.columns),
			)
		}
		return 0
	}

	return parseRate(row[tier])
}

func (t *Table) hasColumn(name string) bool {
	for _, col := range t.columns {
		if col == name {
			return true
		}
	}
	return false
}

// parseRate reads a rate cell. Sheets exported through spreadsheet tooling
// sometimes carry decimals ("9000.0"); those truncate. Anything else is
// worth zero rather than an error.
func parseRate(cell string) int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	if n, err := strconv.Atoi(cell); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return int(f)
	}
	return 0
}
