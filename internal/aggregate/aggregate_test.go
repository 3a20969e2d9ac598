package aggregate

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/formats/xlsx"
)

type fakeBook struct {
	sheets []string
	values map[string]any // sheet name -> value of the aggregated cell
	fail   map[string]bool
}

func (f *fakeBook) SheetNames() []string { return f.sheets }

func (f *fakeBook) CellValue(sheet, cell string) (any, error) {
	if f.fail[sheet] {
		return nil, errors.New("corrupt sheet")
	}
	return f.values[sheet], nil
}

func newFakeBook(n int) *fakeBook {
	b := &fakeBook{values: map[string]any{}, fail: map[string]bool{}}
	for i := 1; i <= n; i++ {
		b.sheets = append(b.sheets, fmt.Sprintf("S%d", i))
	}
	return b
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{"1,234", 1234, true},
		{"", 0, false},
		{nil, 0, false},
		{"abc", 0, false},
		{"42", 42, true},
		{"  7.5 ", 7.5, true},
		{"-1,000.25", -1000.25, true},
		{"1e3", 1000, true},
		{12.5, 12.5, true},
		{3, 3, true},
		{true, 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
		{math.Inf(1), 0, false},
		{"0x10", 0, false},
		{"   ", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseNumber(%#v) ok", tt.in)
		assert.Equal(t, tt.want, got, "ParseNumber(%#v) value", tt.in)
	}
}

func TestAggregateRowsPerGroup(t *testing.T) {
	book := newFakeBook(6)
	book.values["S1"] = 10.0
	book.values["S2"] = "1,000"
	book.values["S3"] = "n/a"
	book.values["S4"] = nil
	book.values["S5"] = 2.5
	book.values["S6"] = "4"

	opts := Options{
		Cell: "Z47",
		Groups: []config.Group{
			{Name: "East", Sheets: []int{5, 1, 2}},
			{Name: "West", Sheets: []int{3, 4, 6}},
			{Name: "Empty"},
		},
	}

	report, err := Aggregate(book, opts)
	require.NoError(t, err)

	// len(sheets)+1 rows per group
	require.Len(t, report.Rows, 4+4+1)

	east := report.Rows[:4]
	assert.Equal(t, []int{5, 1, 2}, []int{east[0].SheetNumber, east[1].SheetNumber, east[2].SheetNumber}, "declared order kept")
	assert.True(t, east[3].Total)
	assert.Equal(t, TotalSheetName, east[3].SheetName)
	assert.Equal(t, 1012.5, east[3].Value)
	assert.Equal(t, "missing/invalid sheets: 0", east[3].Note)

	west := report.Rows[4:8]
	assert.Equal(t, "Cell empty or not numeric", west[0].Note)
	assert.Equal(t, "n/a", west[0].Value)
	assert.Equal(t, "Cell empty or not numeric", west[1].Note)
	assert.Equal(t, "", west[2].Note)
	assert.Equal(t, 4.0, west[3].Value)
	assert.Equal(t, "missing/invalid sheets: 2", west[3].Note)

	empty := report.Rows[8]
	assert.True(t, empty.Total)
	assert.Equal(t, 0.0, empty.Value)

	total, ok := report.Total("West")
	require.True(t, ok)
	assert.Equal(t, GroupTotal{Group: "West", Sum: 4, Valid: 1, Missing: 2}, total)
}

func TestAggregateOutOfRange(t *testing.T) {
	book := newFakeBook(3)
	book.values["S1"] = 5.0

	report, err := Aggregate(book, Options{
		Cell:   "Z47",
		Groups: []config.Group{{Name: "G", Sheets: []int{0, 1, 4, -2}}},
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 5)

	for _, i := range []int{0, 2, 3} {
		row := report.Rows[i]
		assert.Equal(t, "Sheet number out of range (file has 3 sheets)", row.Note)
		assert.Empty(t, row.SheetName)
		assert.Nil(t, row.Value)
	}
	assert.Equal(t, 5.0, report.Rows[4].Value)
	assert.Equal(t, "missing/invalid sheets: 3", report.Rows[4].Note)
}

func TestAggregateReadFailureIsMissing(t *testing.T) {
	book := newFakeBook(2)
	book.values["S2"] = 3.0
	book.fail["S1"] = true

	report, err := Aggregate(book, Options{Cell: "A1", Groups: []config.Group{{Name: "G", Sheets: []int{1, 2}}}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.Rows[0].Note, "Cell read failed"))
	total, _ := report.Total("G")
	assert.Equal(t, 3.0, total.Sum)
	assert.Equal(t, 1, total.Missing)
}

func TestAggregateExactSum(t *testing.T) {
	book := newFakeBook(3)
	book.values["S1"] = 0.1
	book.values["S2"] = 0.2
	book.values["S3"] = "0.3"

	report, err := Aggregate(book, Options{Cell: "A1", Groups: []config.Group{{Name: "G", Sheets: []int{1, 2, 3}}}})
	require.NoError(t, err)
	total, _ := report.Total("G")
	assert.Equal(t, 0.6, total.Sum)
}

func TestAggregateInvalidCell(t *testing.T) {
	_, err := Aggregate(newFakeBook(1), Options{Cell: "47Z"})
	assert.Error(t, err)
}

func TestReportTableAndSummary(t *testing.T) {
	book := newFakeBook(2)
	book.values["S1"] = 1.5
	book.values["S2"] = 2.0

	report, err := Aggregate(book, Options{
		Label:  "week1",
		Cell:   "Z47",
		Groups: []config.Group{{Name: "Hiawassee EB", Sheets: []int{1, 2}}, {Name: "Ramp", Sheets: []int{9}}},
	})
	require.NoError(t, err)

	table := report.Table()
	assert.Equal(t, []string{"group", "sheet_number", "sheet_name", "cell", "value", "note"}, table.Headers)
	require.Len(t, table.Rows, 5)
	assert.Equal(t, []any{"Hiawassee EB", "", TotalSheetName, "Z47", 3.5, "missing/invalid sheets: 0"}, table.Rows[2])
	assert.Nil(t, table.Rows[3][2], "out-of-range row has no sheet name")

	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf))
	assert.Equal(t, "=== WEEK1 SUMMARY (cell Z47) ===\nHiawassee EB: 3.5\nRamp: 0\n", buf.String())
}

func TestAggregateFileAndSave(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	for i := 1; i <= 4; i++ {
		name := fmt.Sprintf("Day %d", i)
		if i == 1 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
	}
	require.NoError(t, f.SetCellValue("Day 2", "Z47", 1200))
	require.NoError(t, f.SetCellValue("Day 3", "Z47", "1,300"))
	require.NoError(t, f.SetCellValue("Day 4", "Z47", "closed"))
	path := filepath.Join(dir, "week.xlsx")
	require.NoError(t, f.SaveAs(path))
	f.Close()

	report, err := AggregateFile(path, Options{
		Label:  "week1",
		Cell:   "Z47",
		Groups: []config.Group{{Name: "EB", Sheets: []int{2, 3, 4}}},
	})
	require.NoError(t, err)
	total, _ := report.Total("EB")
	assert.Equal(t, 2500.0, total.Sum)
	assert.Equal(t, 1, total.Missing)

	outputs, err := report.Save(filepath.Join(dir, "OUTPUT"))
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, filepath.Join(dir, "OUTPUT", "week1_Z47_extraction.xlsx"), outputs[0])

	csvData, err := os.ReadFile(outputs[1])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "EB,,TOTAL (group sum),Z47,2500,missing/invalid sheets: 1", lines[4])

	out, err := xlsx.Open(outputs[0])
	require.NoError(t, err)
	defer out.Close()
	v, err := out.CellValue("Sheet1", "E5")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, v)
}

func TestAggregateFileMissing(t *testing.T) {
	_, err := AggregateFile(filepath.Join(t.TempDir(), "nope.xlsx"), Options{Cell: "Z47"})
	assert.Error(t, err)
}
