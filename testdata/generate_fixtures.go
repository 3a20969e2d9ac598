//go:build ignore

// This program generates sample workbooks for sheetkit tests and demos.
package main

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

func main() {
	if err := generateSample("sample.xlsx", 8); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}

	if err := generateWeek("week1.xlsx", 183); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating week1.xlsx: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Test fixtures generated successfully.")
}

// generateSample writes a small workbook: a cover sheet followed by data
// sheets with a station name in A21 and a count in Z46.
func generateSample(path string, sheets int) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Cover")
	f.SetCellValue("Cover", "A1", "Traffic counts")

	for i := 1; i < sheets; i++ {
		name := fmt.Sprintf("Station %d", i)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		f.SetCellValue(name, "A21", fmt.Sprintf("Hiawassee Rd #%d", i))
		if i%4 == 0 {
			f.SetCellValue(name, "Z46", "n/a")
			continue
		}
		f.SetCellValue(name, "Z46", 1000+i*37)
	}

	return f.SaveAs(path)
}

// generateWeek writes a workbook matching examples/week1.yaml: one tab per
// count with a daily total in Z47.
func generateWeek(path string, sheets int) error {
	f := excelize.NewFile()
	defer f.Close()

	for i := 1; i <= sheets; i++ {
		name := fmt.Sprintf("%d", i)
		if i == 1 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		f.SetCellValue(name, "Z47", float64(i*11)+0.5)
	}

	return f.SaveAs(path)
}
