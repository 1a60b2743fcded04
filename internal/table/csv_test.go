package table

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadCSVUTF8WithBOM(t *testing.T) {
	data := append(append([]byte{}, utf8BOM...), []byte("A,B\n1,2\n")...)
	path := writeFile(t, "in.csv", data)

	tbl, err := Load(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cols := tbl.Columns()
	if cols[0] != "A" {
		t.Fatalf("BOM leaked into first header: %q", cols[0])
	}
	if tbl.Rows[0]["B"] != "2" {
		t.Fatalf("unexpected cell: %q", tbl.Rows[0]["B"])
	}
}

func TestLoadCSVLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 but an invalid UTF-8 sequence
	data := []byte("Name,Code\nJos\xe9,D1\n")
	path := writeFile(t, "latin.csv", data)

	tbl, err := Load(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tbl.Rows[0]["Name"]; got != "José" {
		t.Fatalf("expected latin1 decode, got %q", got)
	}
}

func TestLoadCSVShapeMismatch(t *testing.T) {
	path := writeFile(t, "ragged.csv", []byte("A,B\n1,2,3\n"))

	_, err := Load(path, nil)
	if !errors.Is(err, ErrUnreadableSource) {
		t.Fatalf("expected ErrUnreadableSource, got %v", err)
	}
}

func TestCSVRoundTripWithBOM(t *testing.T) {
	tbl := New([]string{"HCP Email", "Tier"})
	tbl.Append(Row{"HCP Email": "a@x.com", "Tier": "Tier 1"})

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := tbl.Write(path); err != nil {
		t.Fatalf("writing: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if !bytes.HasPrefix(raw, utf8BOM) {
		t.Fatalf("expected BOM prefix")
	}

	back, err := Load(path, nil)
	if err != nil {
		t.Fatalf("loading back: %v", err)
	}
	if back.Len() != 1 || back.Rows[0]["HCP Email"] != "a@x.com" {
		t.Fatalf("round trip lost data: %+v", back.Rows)
	}
}

func TestBackup(t *testing.T) {
	path := writeFile(t, "calc.csv", []byte("A\n1\n"))
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	dst, err := Backup(path, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(filepath.Dir(path), "calc_backup_20250304_050607.csv")
	if dst != want {
		t.Fatalf("unexpected backup name: %q", dst)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(data) != "A\n1\n" {
		t.Fatalf("backup content differs: %q", data)
	}
}

func TestBackupMissingSourceIsNoop(t *testing.T) {
	dst, err := Backup(filepath.Join(t.TempDir(), "absent.csv"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst != "" {
		t.Fatalf("expected empty backup path, got %q", dst)
	}
}
