package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// XLSXSaver writes the summary and every matrix to their own sheets.
type XLSXSaver struct{}

func (XLSXSaver) Extension() string { return "xlsx" }

func (XLSXSaver) Save(doc Document, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := writeRow(f, summarySheet, 1, toAny(summaryHeader())); err != nil {
		return err
	}
	for i, r := range doc.Summary {
		row := []any{r.Sector, r.Ticker}
		for _, v := range r.Percentages() {
			row = append(row, v)
		}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return err
		}
	}

	for _, m := range doc.Matrices {
		if _, err := f.NewSheet(m.Name); err != nil {
			return fmt.Errorf("new sheet %s: %w", m.Name, err)
		}
		header := append([]any{""}, toAny(m.Matrix.Labels)...)
		if err := writeRow(f, m.Name, 1, header); err != nil {
			return err
		}
		for i, label := range m.Matrix.Labels {
			row := []any{label}
			for _, v := range m.Matrix.Values[i] {
				row = append(row, v)
			}
			if err := writeRow(f, m.Name, i+2, row); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
