package table

import (
	"errors"
	"testing"
)

func TestFromRowsPadsShortRows(t *testing.T) {
	tbl, err := FromRows([][]string{
		{"A", "B", "C"},
		{"1", "2"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tbl.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", tbl.Len())
	}
	if got := tbl.Rows[0]["C"]; got != "" {
		t.Fatalf("expected blank pad, got %q", got)
	}
}

func TestFromRowsRejectsLongRows(t *testing.T) {
	_, err := FromRows([][]string{
		{"A", "B"},
		{"1", "2", "3"},
	}, nil)
	if !errors.Is(err, ErrUnreadableSource) {
		t.Fatalf("expected ErrUnreadableSource, got %v", err)
	}
}

func TestFromRowsAllowList(t *testing.T) {
	tbl, err := FromRows([][]string{
		{"A", "B", "C"},
		{"1", "2", "3"},
	}, []string{"C", "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cols := tbl.Columns()
	// file order wins, not allow-list order
	if len(cols) != 2 || cols[0] != "A" || cols[1] != "C" {
		t.Fatalf("unexpected columns: %v", cols)
	}
	if _, ok := tbl.Rows[0]["B"]; ok {
		t.Fatalf("column B should have been filtered out")
	}
}

func TestEnsureColumns(t *testing.T) {
	tbl := New([]string{"A"})

	added := tbl.EnsureColumns("A", "B")
	if len(added) != 1 || added[0] != "B" {
		t.Fatalf("unexpected added: %v", added)
	}
	if !tbl.HasColumn("B") {
		t.Fatalf("expected column B")
	}
}

func TestValidate(t *testing.T) {
	tbl := New([]string{"HCP Email"})

	if err := tbl.Validate("FMV Calculator", []string{"HCP Email"}, true); err != nil {
		t.Fatalf("headers-only calculator should validate: %v", err)
	}
	if err := tbl.Validate("CVdump", []string{"HCP Email"}, false); !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("empty survey should fail validation, got %v", err)
	}
	if err := tbl.Validate("DVL", []string{"Customer Code"}, false); !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("missing column should fail validation, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir()+"/nope.csv", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
