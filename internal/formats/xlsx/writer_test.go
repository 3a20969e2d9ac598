package xlsx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAndReadBack(t *testing.T) {
	table := &Table{
		Name:    "Results",
		Headers: []string{"source_file", "sheet_number", "value"},
		Rows: [][]any{
			{"a.xlsx", 2, 10.5},
			{"a.xlsx", 3, nil},
		},
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteFile(table, path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()

	if names := b.SheetNames(); len(names) != 1 || names[0] != "Results" {
		t.Fatalf("unexpected sheets %v", names)
	}

	header, _ := b.CellValue("Results", "A1")
	if header != "source_file" {
		t.Errorf("A1 = %v, want source_file", header)
	}
	num, _ := b.CellValue("Results", "C2")
	if num != 10.5 {
		t.Errorf("C2 = %v, want 10.5", num)
	}
	pos, _ := b.CellValue("Results", "B3")
	if pos != float64(3) {
		t.Errorf("B3 = %v, want 3", pos)
	}
	empty, _ := b.CellValue("Results", "C3")
	if empty != nil {
		t.Errorf("C3 = %v, want nil", empty)
	}
}

func TestWriteCSV(t *testing.T) {
	table := &Table{
		Headers: []string{"Name", "Value"},
		Rows: [][]any{
			{"Test", 123.0},
			{"Comma, inside", nil},
			{"Flag", true},
		},
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}

	expected := "Name,Value\nTest,123\n\"Comma, inside\",\nFlag,True\n"
	if buf.String() != expected {
		t.Errorf("expected CSV %q, got %q", expected, buf.String())
	}
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	table := &Table{Headers: []string{"a"}, Rows: [][]any{{1}}}
	if err := WriteCSVFile(table, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\n1\n" {
		t.Errorf("unexpected CSV %q", data)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{1234.0, "1234"},
		{0.25, "0.25"},
		{7, "7"},
		{false, "False"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
