// Package aggregate reads one cell from listed sheets of a workbook, groups
// the values by name and reports per-group totals.
package aggregate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
)

// TotalSheetName marks the synthetic row that closes each group.
const TotalSheetName = "TOTAL (group sum)"

const (
	noteNotNumeric = "Cell empty or not numeric"
	noteOutOfRange = "Sheet number out of range (file has %d sheets)"
	noteReadFailed = "Cell read failed: %v"
	noteMissing    = "missing/invalid sheets: %d"
)

// Workbook is the read access the aggregator needs.
type Workbook interface {
	SheetNames() []string
	CellValue(sheet, cell string) (any, error)
}

// Options holds the cell to read and the groups to read it from.
type Options struct {
	Cell   string
	Groups []config.Group
	// Label names the report in summaries and output file names.
	Label string
}

// Row is one entry of the flat log. Total rows have SheetNumber 0 and
// carry the group sum in Value.
type Row struct {
	Group       string `json:"group"`
	SheetNumber int    `json:"sheet_number"`
	SheetName   string `json:"sheet_name"`
	Cell        string `json:"cell"`
	Value       any    `json:"value"`
	Note        string `json:"note"`
	Total       bool   `json:"total,omitempty"`
}

// GroupTotal summarizes one group.
type GroupTotal struct {
	Group   string  `json:"group"`
	Sum     float64 `json:"sum"`
	Valid   int     `json:"valid"`
	Missing int     `json:"missing"`
}

// Report is the result of an aggregation.
type Report struct {
	Label  string       `json:"label"`
	Cell   string       `json:"cell"`
	Sheets int          `json:"sheets"`
	Rows   []Row        `json:"rows"`
	Totals []GroupTotal `json:"totals"`
}

// Aggregate reads opts.Cell from every listed sheet, in group declaration
// order and list order. Positions outside the workbook, unreadable cells and
// non-numeric values are recorded as missing and never abort the run.
func Aggregate(wb Workbook, opts Options) (*Report, error) {
	if err := config.ValidateCell(opts.Cell); err != nil {
		return nil, err
	}

	names := wb.SheetNames()
	report := &Report{Label: opts.Label, Cell: opts.Cell, Sheets: len(names)}

	for _, grp := range opts.Groups {
		sum := decimal.Zero
		total := GroupTotal{Group: grp.Name}

		for _, pos := range grp.Sheets {
			row := Row{Group: grp.Name, SheetNumber: pos, Cell: opts.Cell}

			name, err := xlsx.SheetAt(names, pos)
			if err != nil {
				row.Note = fmt.Sprintf(noteOutOfRange, len(names))
				total.Missing++
				report.Rows = append(report.Rows, row)
				continue
			}

			row.SheetName = name
			raw, err := wb.CellValue(row.SheetName, opts.Cell)
			if err != nil {
				row.Note = fmt.Sprintf(noteReadFailed, err)
				total.Missing++
				report.Rows = append(report.Rows, row)
				continue
			}

			row.Value = raw
			if n, ok := ParseNumber(raw); ok {
				sum = sum.Add(decimal.NewFromFloat(n))
				total.Valid++
			} else {
				row.Note = noteNotNumeric
				total.Missing++
			}
			report.Rows = append(report.Rows, row)
		}

		total.Sum = sum.InexactFloat64()
		report.Totals = append(report.Totals, total)
		report.Rows = append(report.Rows, Row{
			Group:     grp.Name,
			SheetName: TotalSheetName,
			Cell:      opts.Cell,
			Value:     total.Sum,
			Note:      fmt.Sprintf(noteMissing, total.Missing),
			Total:     true,
		})
	}

	return report, nil
}

// AggregateFile opens path and aggregates it.
func AggregateFile(path string, opts Options) (*Report, error) {
	b, err := xlsx.Open(path)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	return Aggregate(b, opts)
}

// Table flattens the report into the output log. Total rows leave the
// sheet number blank.
func (r *Report) Table() *xlsx.Table {
	t := &xlsx.Table{
		Name:    "Sheet1",
		Headers: []string{"group", "sheet_number", "sheet_name", "cell", "value", "note"},
	}
	for _, row := range r.Rows {
		var num, name any = row.SheetNumber, row.SheetName
		if row.Total {
			num = ""
		}
		if row.SheetName == "" {
			name = nil
		}
		t.Append([]any{row.Group, num, name, row.Cell, row.Value, row.Note})
	}
	return t
}

// Save writes the flat log to outDir as <label>_<cell>_extraction.xlsx and .csv.
func (r *Report) Save(outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", outDir, err)
	}
	label := r.Label
	if label == "" {
		label = "report"
	}
	base := filepath.Join(outDir, fmt.Sprintf("%s_%s_extraction", label, r.Cell))
	return xlsx.SaveTable(r.Table(), base)
}

// Total returns the totals for the named group.
func (r *Report) Total(group string) (GroupTotal, bool) {
	for _, t := range r.Totals {
		if t.Group == group {
			return t, true
		}
	}
	return GroupTotal{}, false
}

// WriteSummary prints one "group: total" line per group under a heading.
func (r *Report) WriteSummary(w io.Writer) error {
	label := r.Label
	if label == "" {
		label = "report"
	}
	if _, err := fmt.Fprintf(w, "=== %s SUMMARY (cell %s) ===\n", strings.ToUpper(label), r.Cell); err != nil {
		return err
	}
	for _, t := range r.Totals {
		if _, err := fmt.Fprintf(w, "%s: %s\n", t.Group, xlsx.FormatValue(t.Sum)); err != nil {
			return err
		}
	}
	return nil
}
