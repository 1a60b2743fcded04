package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode attempts run in this order; the first one yielding a clean parse
// wins. Latin-1 accepts any byte, so Windows-1252 only sees files that fail
// structurally under Latin-1.
var csvEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", unicode.UTF8BOM},
	{"latin1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

func loadCSV(path string, allow []string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, path, err)
	}

	lastErr := errors.New("no decode attempted")
	for _, e := range csvEncodings {
		if e.name == "utf-8" && !utf8.Valid(bytes.TrimPrefix(raw, utf8BOM)) {
			lastErr = errors.New("invalid utf-8 byte sequence")
			continue
		}

		decoded, err := e.enc.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = err
			continue
		}

		t, err := parseCSV(decoded, allow)
		if err != nil {
			lastErr = err
			continue
		}
		return t, nil
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, path, lastErr)
}

func parseCSV(data []byte, allow []string) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	// default FieldsPerRecord: every record must match the header's shape
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return FromRows(records, allow)
}

// writeCSV writes UTF-8 with a BOM so spreadsheet tools pick the encoding up.
func (t *Table) writeCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.columns); err != nil {
		return err
	}
	rec := make([]string, len(t.columns))
	for _, row := range t.Rows {
		for i, col := range t.columns {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
