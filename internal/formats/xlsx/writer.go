package xlsx

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Table is a header row followed by data rows. Cell values keep their Go
// type (nil, float64, int, bool, string) so numbers stay numeric in .xlsx.
type Table struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Append adds rows to the table.
func (t *Table) Append(rows ...[]any) {
	t.Rows = append(t.Rows, rows...)
}

// WriteFile creates a new .xlsx file holding the table on a single sheet.
func WriteFile(t *Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := t.Name
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("could not rename sheet: %w", err)
	}

	row := 1
	if len(t.Headers) > 0 {
		header := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			header[i] = h
		}
		if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
			return fmt.Errorf("could not write header: %w", err)
		}
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("could not create header style: %w", err)
		}
		if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
			return fmt.Errorf("could not style header: %w", err)
		}
		row++
	}

	for _, values := range t.Rows {
		cellName, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("invalid cell coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cellName, &values); err != nil {
			return fmt.Errorf("could not write row %d: %w", row, err)
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}

	return nil
}

// SaveTable writes t as base.xlsx and base.csv and returns both paths, .xlsx first.
func SaveTable(t *Table, base string) ([]string, error) {
	xlsxPath := base + ".xlsx"
	csvPath := base + ".csv"
	if err := WriteFile(t, xlsxPath); err != nil {
		return nil, err
	}
	if err := WriteCSVFile(t, csvPath); err != nil {
		return nil, err
	}
	return []string{xlsxPath, csvPath}, nil
}

// WriteCSVFile writes the table as comma-separated text.
func WriteCSVFile(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return f.Close()
}

// WriteCSV writes the header and rows to w.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if len(t.Headers) > 0 {
		if err := cw.Write(t.Headers); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders a cell value as text. nil renders as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}
