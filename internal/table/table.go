package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load failure modes. All of them are fatal for the run; callers match with
// errors.Is.
var (
	ErrNotFound         = errors.New("source file not found")
	ErrUnreadableSource = errors.New("source unreadable")
	ErrSchemaInvalid    = errors.New("required columns missing")
)

// Row maps a column name to its raw cell value. Cells are always strings; no
// type inference happens at load time.
type Row map[string]string

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered list of rows sharing one header. Column order is
// preserved from the source file and drives the cell order on write.
type Table struct {
	columns []string
	Rows    []Row
}

func New(columns []string) *Table {
	return &Table{columns: append([]string(nil), columns...)}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns a copy of the header in file order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) HasColumn(name string) bool {
	for _, col := range t.columns {
		if col == name {
			return true
		}
	}
	return false
}

// EnsureColumns appends any of the given columns that are not present yet,
// returning the ones actually added.
func (t *Table) EnsureColumns(names ...string) []string {
	var added []string
	for _, name := range names {
		if !t.HasColumn(name) {
			t.columns = append(t.columns, name)
			added = append(added, name)
		}
	}
	return added
}

func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Validate checks the required columns and, unless allowEmpty is set, that
// the table carries at least one data row. The calculator is the only source
// where headers-only is a legitimate state.
func (t *Table) Validate(name string, required []string, allowEmpty bool) error {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrSchemaInvalid, name, strings.Join(missing, ", "))
	}
	if t.Len() == 0 && !allowEmpty {
		return fmt.Errorf("%w: %s: no data rows", ErrSchemaInvalid, name)
	}
	return nil
}

// Load reads a delimited or spreadsheet source into a table, keeping only the
// allow-listed columns when allow is non-empty. The read is pure; validation
// of required columns happens separately.
func Load(path string, allow []string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return loadExcel(path, allow)
	default:
		return loadCSV(path, allow)
	}
}

// Write persists the table back to path in the format implied by the
// extension.
func (t *Table) Write(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return t.writeExcel(path)
	default:
		return t.writeCSV(path)
	}
}

// FromRows builds a table from raw records, the first record being the
// header. Records shorter than the header are padded with blanks; records
// longer than the header mean the source is malformed.
func FromRows(records [][]string, allow []string) (*Table, error) {
	if len(records) == 0 {
		return New(nil), nil
	}

	header := records[0]
	keep := keepIndexes(header, allow)

	columns := make([]string, 0, len(keep))
	for _, i := range keep {
		columns = append(columns, header[i])
	}

	t := New(columns)
	for n, rec := range records[1:] {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrUnreadableSource, n+2, len(rec), len(header))
		}
		row := make(Row, len(keep))
		for _, i := range keep {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			row[header[i]] = v
		}
		t.Append(row)
	}

	return t, nil
}

func keepIndexes(header, allow []string) []int {
	idx := make([]int, 0, len(header))
	if len(allow) == 0 {
		for i := range header {
			idx = append(idx, i)
		}
		return idx
	}

	allowed := make(map[string]bool, len(allow))
	for _, name := range allow {
		allowed[name] = true
	}
	for i, name := range header {
		if allowed[name] {
			idx = append(idx, i)
		}
	}
	return idx
}
