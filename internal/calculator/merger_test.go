package calculator

import (
	"testing"

	"github.com/whyumesh/FMV/internal/matching"
	"github.com/whyumesh/FMV/internal/table"
)

func calcTable(rows ...table.Row) *table.Table {
	t := table.New([]string{
		matching.ColDVLCode,
		matching.ColHCPEmail,
		matching.ColHCPName,
		matching.ColYears,
		matching.ColSpecialty,
	})
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestMergeAppendsNewIdentity(t *testing.T) {
	target := calcTable()
	matched := []matching.Record{
		{
			DVLCode: "D100",
			Email:   "jane.doe@x.com",
			Fields: table.Row{
				matching.ColHCPEmail: "jane.doe@x.com",
				matching.ColHCPName:  "Jane Doe",
				"No Such Column":     "dropped",
			},
		},
	}

	stats := Merge(target, matched, nil)

	if stats.Appended != 1 {
		t.Fatalf("expected 1 appended, got %d", stats.Appended)
	}
	if target.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", target.Len())
	}

	row := target.Rows[0]
	if row[matching.ColDVLCode] != "D100" {
		t.Fatalf("expected code to be set, got %q", row[matching.ColDVLCode])
	}
	if row[matching.ColHCPName] != "Jane Doe" {
		t.Fatalf("expected name to be set, got %q", row[matching.ColHCPName])
	}
	// columns the record does not carry are padded blank
	if v, ok := row[matching.ColSpecialty]; !ok || v != "" {
		t.Fatalf("expected blank specialty, got %q (ok=%v)", v, ok)
	}
	// incoming fields with no target column are dropped
	if _, ok := row["No Such Column"]; ok {
		t.Fatalf("unexpected column survived the merge")
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	target := calcTable()
	matched := []matching.Record{
		{DVLCode: "D1", Email: "a@x.com", Fields: table.Row{
			matching.ColHCPEmail: "a@x.com",
			matching.ColYears:    "15+ years of experience",
		}},
		{DVLCode: "D2", Email: "b@x.com", Fields: table.Row{
			matching.ColHCPEmail: "b@x.com",
			matching.ColYears:    "3-7 years of experience",
		}},
	}

	first := Merge(target, matched, nil)
	if first.Appended != 2 {
		t.Fatalf("expected 2 appended on first run, got %d", first.Appended)
	}

	second := Merge(target, matched, nil)
	if second.Appended != 0 {
		t.Fatalf("expected 0 appended on second run, got %d", second.Appended)
	}
	if target.Len() != 2 {
		t.Fatalf("expected 2 rows after both runs, got %d", target.Len())
	}
}

func TestMergeBackFillsWhenTriggerBlank(t *testing.T) {
	target := calcTable(table.Row{
		matching.ColHCPEmail:  "x@y.com",
		matching.ColHCPName:   "Existing Name",
		matching.ColYears:     "",
		matching.ColSpecialty: "",
	})
	matched := []matching.Record{
		{DVLCode: "D9", Email: "x@y.com", Fields: table.Row{
			matching.ColHCPEmail:  "x@y.com",
			matching.ColHCPName:   "Incoming Name",
			matching.ColYears:     "8-14 years of experience",
			matching.ColSpecialty: "Cardiology",
		}},
	}

	stats := Merge(target, matched, nil)

	if stats.BackFilled != 1 {
		t.Fatalf("expected 1 back-filled, got %+v", stats)
	}
	if target.Len() != 1 {
		t.Fatalf("expected no new rows, got %d", target.Len())
	}

	row := target.Rows[0]
	if row[matching.ColYears] != "8-14 years of experience" {
		t.Fatalf("years not back-filled: %q", row[matching.ColYears])
	}
	if row[matching.ColSpecialty] != "Cardiology" {
		t.Fatalf("specialty not back-filled: %q", row[matching.ColSpecialty])
	}
	// populated cells are never overwritten
	if row[matching.ColHCPName] != "Existing Name" {
		t.Fatalf("existing value overwritten: %q", row[matching.ColHCPName])
	}
}

func TestMergeSkipsWhenTriggerPopulated(t *testing.T) {
	target := calcTable(table.Row{
		matching.ColHCPEmail: "x@y.com",
		matching.ColHCPName:  "Existing Name",
		matching.ColYears:    "15+ years of experience",
	})
	matched := []matching.Record{
		{DVLCode: "D9", Email: "x@y.com", Fields: table.Row{
			matching.ColHCPEmail:  "x@y.com",
			matching.ColHCPName:   "Incoming Name",
			matching.ColYears:     "1-2 years of experience",
			matching.ColSpecialty: "Cardiology",
		}},
	}

	stats := Merge(target, matched, nil)

	if stats.Skipped != 1 || stats.BackFilled != 0 {
		t.Fatalf("expected untouched row, got %+v", stats)
	}

	row := target.Rows[0]
	if row[matching.ColYears] != "15+ years of experience" {
		t.Fatalf("trigger value changed: %q", row[matching.ColYears])
	}
	if row[matching.ColSpecialty] != "" {
		t.Fatalf("row touched despite populated trigger: %q", row[matching.ColSpecialty])
	}
}

func TestEnsureComputedColumns(t *testing.T) {
	target := calcTable()

	added := EnsureComputedColumns(target)
	if len(added) != 13 {
		t.Fatalf("expected 13 added columns, got %d: %v", len(added), added)
	}
	for _, col := range []string{"Score 1", "Score 9", ColTotalScore, ColRange, ColTier, ColRate} {
		if !target.HasColumn(col) {
			t.Fatalf("missing column %q", col)
		}
	}

	if again := EnsureComputedColumns(target); len(again) != 0 {
		t.Fatalf("second ensure added columns: %v", again)
	}
}
