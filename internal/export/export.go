// Package export serializes result tables for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"patterncal/internal/extract"
)

const defaultSheet = "Sheet1"

// WriteCSV writes the table as comma-separated values with a header line.
// Missing cells are written as empty fields.
func WriteCSV(w io.Writer, t *extract.Table) error {
	cw := csv.NewWriter(w)
	if t.Empty() {
		cw.Flush()
		return cw.Error()
	}
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = cell.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the table as a workbook with a single sheet. Numbers
// and dates keep their spreadsheet types.
func WriteXLSX(w io.Writer, t *extract.Table, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	if !t.Empty() {
		header := make([]interface{}, len(t.Columns))
		for i, name := range t.Names() {
			header[i] = name
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for r, row := range t.Rows {
			values := make([]interface{}, len(row))
			for i, cell := range row {
				values[i] = xlsxValue(cell)
			}
			axis, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, axis, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", r+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func xlsxValue(c extract.Cell) interface{} {
	if c.Missing {
		return nil
	}
	switch c.Kind {
	case extract.CellNumber:
		return c.Number
	case extract.CellWhen:
		if c.When.IsRaw() {
			return c.When.Raw
		}
		return c.When.Time
	default:
		return c.Text
	}
}
