// Package extract reads two fixed cells from every sheet of a workbook,
// starting at a given sheet position, and collects one row per sheet.
package extract

import (
	"fmt"
	"path/filepath"

	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
)

// Extensions are the workbook types the extractor can open.
var Extensions = []string{".xlsx", ".xlsm"}

// Workbook is the read access the extractor needs.
type Workbook interface {
	SheetNames() []string
	CellValue(sheet, cell string) (any, error)
}

// Options selects which sheets and cells are read.
type Options struct {
	// StartSheet is the 1-based position of the first sheet to read.
	// Earlier sheets (a cover page, a summary) are skipped.
	StartSheet int
	LabelCell  string
	ValueCell  string
}

// DefaultOptions returns the stock A21/Z46 layout starting at sheet 2.
func DefaultOptions() Options {
	return Options{StartSheet: 2, LabelCell: "A21", ValueCell: "Z46"}
}

// Validate checks the start position and both cell coordinates.
func (o Options) Validate() error {
	if o.StartSheet < 1 {
		return fmt.Errorf("start sheet must be 1 or greater, got %d", o.StartSheet)
	}
	if err := config.ValidateCell(o.LabelCell); err != nil {
		return fmt.Errorf("label cell: %w", err)
	}
	if err := config.ValidateCell(o.ValueCell); err != nil {
		return fmt.Errorf("value cell: %w", err)
	}
	return nil
}

// Row is one extracted sheet.
type Row struct {
	SourceFile  string `json:"source_file"`
	SheetNumber int    `json:"sheet_number"`
	SheetName   string `json:"sheet_name"`
	Label       any    `json:"label"`
	Value       any    `json:"value"`
}

// ExtractBook returns one row per sheet from opts.StartSheet to the last sheet.
// Cell values are copied as stored, without conversion.
func ExtractBook(wb Workbook, source string, opts Options) ([]Row, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	names := wb.SheetNames()
	var rows []Row
	for pos := opts.StartSheet; pos <= len(names); pos++ {
		name := names[pos-1]

		label, err := wb.CellValue(name, opts.LabelCell)
		if err != nil {
			return nil, err
		}
		value, err := wb.CellValue(name, opts.ValueCell)
		if err != nil {
			return nil, err
		}

		rows = append(rows, Row{
			SourceFile:  source,
			SheetNumber: pos,
			SheetName:   name,
			Label:       label,
			Value:       value,
		})
	}

	return rows, nil
}

// ExtractFile opens path and extracts it.
func ExtractFile(path string, opts Options) ([]Row, error) {
	b, err := xlsx.Open(path)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	return ExtractBook(b, filepath.Base(path), opts)
}

// Table converts rows into an output table with the cell coordinates as column names.
func Table(rows []Row, opts Options) *xlsx.Table {
	t := &xlsx.Table{
		Name:    "Sheet1",
		Headers: []string{"source_file", "sheet_number", "sheet_name", opts.LabelCell, opts.ValueCell},
	}
	for _, r := range rows {
		t.Append([]any{r.SourceFile, r.SheetNumber, r.SheetName, r.Label, r.Value})
	}
	return t
}
