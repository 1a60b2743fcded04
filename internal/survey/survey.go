// Package survey handles the CVdump export: column allow-listing, submission
// timestamp parsing and latest-entry deduplication.
package survey

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/whyumesh/FMV/internal/identity"
	"github.com/whyumesh/FMV/internal/table"
)

// Column names exactly as the survey tool exports them. The years question
// carries a non-breaking space and a trailing newline straight from the
// form builder; do not "fix" them here or the allow-list stops matching.
const (
	ColStartTime           = "Start time"
	ColEmail               = "HCP Email"
	ColName                = "HCP Name"
	ColClinical            = "Clinical Experience: i.e. Time Spent with Patients?"
	ColLeadership          = "Leadership position(s) in a Professional or Scientific Society and/or leadership position(s) in Hospital or other Patient Care Settings (e.g. Department Head or Chief, Medical Director, Lab Direct..."
	ColGeographic          = "Geographic influence as a Key Opinion Leader."
	ColAcademic            = "Highest Academic Position Held in past 10 years"
	ColEducation           = "Educational Qualification"
	ColAdditionalEducation = "Additional Educational Level "
	ColSpecialty           = "Specialty / Super Specialty"
	ColYears               = "Years of experience in the Specialty / Super Specialty?\n"
	ColResearch            = "Research Experience (e.g., industry-sponsored research, investigator-initiated research, other research) in past 10 years"
	ColPublication         = "Publication experience in the past 10 years"
	ColSpeaking            = "Speaking experience (professional, academic, scientific, or media experience) in the past 10 years."
)

// Columns is the allow-list handed to the loader for the CVdump source.
func Columns() []string {
	return []string{
		ColStartTime, ColEmail, ColName,
		ColClinical,
		ColLeadership,
		ColGeographic,
		ColAcademic,
		ColEducation, ColAdditionalEducation,
		ColSpecialty,
		ColYears,
		ColResearch,
		ColPublication,
		ColSpeaking,
	}
}

// Explicit layouts tried in order, month-first variants before day-first so
// ambiguous dates resolve the way the survey tool writes them.
var layouts = []string{
	"1/2/06 15:04",
	"1/2/2006 15:04",
	"1-2-06 15:04",
	"1-2-2006 15:04",
	"1/2/06 15:04:05",
	"1/2/2006 15:04:05",
	"1-2-06 15:04:05",
	"1-2-2006 15:04:05",
	"2006-01-02 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04",
}

// Permissive fallbacks for rows that came through other tooling.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006",
}

// ParseSubmittedAt parses a Start time cell. The second return is false when
// no layout matches; such rows never win a dedup and are dropped.
func ParseSubmittedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	for _, layout := range fallbackLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Stats carries the dedup accounting for step logging.
type Stats struct {
	Initial             int
	DroppedNoIdentity   int
	DroppedBadTimestamp int
	Duplicates          int
	Left                int
}

// Dedupe resolves multiple submissions per provider to the most recent one.
// Rows with no usable identity or timestamp are dropped. Emails in the
// result are already normalized. On exact timestamp ties the row read later
// from the source wins (stable sort, keep last).
func Dedupe(t *table.Table, logger *zap.Logger) (*table.Table, Stats) {
	type keyed struct {
		email string
		when  time.Time
		row   table.Row
	}

	stats := Stats{Initial: t.Len()}
	entries := make([]keyed, 0, t.Len())
	for _, row := range t.Rows {
		email := identity.Normalize(row[ColEmail])
		if email == "" {
			stats.DroppedNoIdentity++
			continue
		}

		when, ok := ParseSubmittedAt(row[ColStartTime])
		if !ok {
			stats.DroppedBadTimestamp++
			if logger != nil {
				logger.Warn("dropping survey row with unparseable timestamp",
					zap.String("hcp_email", email),
					zap.String("start_time", row[ColStartTime]),
				)
			}
			continue
		}

		clean := row.Clone()
		clean[ColEmail] = email
		entries = append(entries, keyed{email: email, when: when, row: clean})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].email != entries[j].email {
			return entries[i].email < entries[j].email
		}
		return entries[i].when.Before(entries[j].when)
	})

	out := table.New(t.Columns())
	for i, e := range entries {
		if i == len(entries)-1 || entries[i+1].email != e.email {
			out.Append(e.row)
		}
	}

	stats.Duplicates = len(entries) - out.Len()
	stats.Left = out.Len()
	return out, stats
}
