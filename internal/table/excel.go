package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet the calculator is written to, matching the workbook the business
// side maintains.
const calculatorSheet = "HCP Database"

func loadExcel(path string, allow []string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, path, err)
	}
	defer f.Close()

	// Always read the full sheet and filter to the allow-list in-process;
	// partial reads of workbooks with merged or formula cells are flaky.
	records, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, path, err)
	}

	t, err := FromRows(records, allow)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadSheet reads one named sheet of a workbook, skipping skipRows leading
// banner rows before the header.
func LoadSheet(path, sheet string, skipRows int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableSource, path, err)
	}
	defer f.Close()

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %s sheet %q: %v", ErrUnreadableSource, path, sheet, err)
	}
	if skipRows > len(records) {
		skipRows = len(records)
	}

	t, err := FromRows(records[skipRows:], nil)
	if err != nil {
		return nil, fmt.Errorf("%s sheet %q: %w", path, sheet, err)
	}
	return t, nil
}

func (t *Table) writeExcel(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", calculatorSheet); err != nil {
		return err
	}

	header := make([]any, len(t.columns))
	for i, col := range t.columns {
		header[i] = col
	}
	if err := f.SetSheetRow(calculatorSheet, "A1", &header); err != nil {
		return err
	}

	for n, row := range t.Rows {
		rec := make([]any, len(t.columns))
		for i, col := range t.columns {
			rec[i] = row[col]
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(calculatorSheet, cell, &rec); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
