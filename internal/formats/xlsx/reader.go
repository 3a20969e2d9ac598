// Package xlsx provides reading and writing capabilities for .xlsx (Excel) files.
package xlsx

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetOutOfRange is returned when a 1-based sheet position does not exist.
var ErrSheetOutOfRange = errors.New("sheet number out of range")

// Book is a workbook opened for cell lookups. Close must be called when done.
type Book struct {
	Path string

	f      *excelize.File
	sheets []string
}

// Open opens an .xlsx or .xlsm workbook for reading.
func Open(path string) (*Book, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}

	return &Book{Path: path, f: f, sheets: f.GetSheetList()}, nil
}

// Close releases the underlying file.
func (b *Book) Close() error {
	return b.f.Close()
}

// SheetNames returns the sheet names in workbook order.
func (b *Book) SheetNames() []string {
	out := make([]string, len(b.sheets))
	copy(out, b.sheets)
	return out
}

// SheetAt returns the name at a 1-based position of names, or an error
// wrapping ErrSheetOutOfRange.
func SheetAt(names []string, pos int) (string, error) {
	if pos < 1 || pos > len(names) {
		return "", fmt.Errorf("%w: %d (file has %d sheets)", ErrSheetOutOfRange, pos, len(names))
	}
	return names[pos-1], nil
}

// CellValue returns the stored value of a cell without number formatting.
// Formula cells yield their cached result. The result is nil for an empty
// cell, float64 for numbers, bool for booleans and string otherwise.
func (b *Book) CellValue(sheet, cell string) (any, error) {
	raw, err := b.f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("could not read %s!%s: %w", sheet, cell, err)
	}
	if raw == "" {
		return nil, nil
	}

	typ, err := b.f.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("could not read type of %s!%s: %w", sheet, cell, err)
	}

	return typedValue(raw, typ), nil
}

func typedValue(raw string, typ excelize.CellType) any {
	switch typ {
	case excelize.CellTypeBool:
		switch strings.ToUpper(raw) {
		case "1", "TRUE":
			return true
		case "0", "FALSE":
			return false
		}
		return raw
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
		return raw
	default:
		return raw
	}
}
