// Package convert re-saves legacy and macro-enabled Excel workbooks as
// .xlsx. Conversions go through a Backend, an office application handle
// acquired once per run and released when the run ends.
package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrNoOfficeApp is returned when no office application can be started.
	ErrNoOfficeApp = errors.New("no office application available")
	// ErrUnsupportedSource is returned by a backend that cannot read the input format.
	ErrUnsupportedSource = errors.New("source format not supported by backend")
)

// Kind says what the converter does with a file.
type Kind int

const (
	KindUnsupported Kind = iota
	KindCopy
	KindConvert
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindConvert:
		return "convert"
	default:
		return "unsupported"
	}
}

// Extensions lists the file extensions the converter accepts.
var Extensions = []string{".xls", ".xlsx", ".xlsm"}

// Classify maps a path to its Kind by extension, ignoring case.
func Classify(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return KindCopy
	case ".xls", ".xlsm":
		return KindConvert
	default:
		return KindUnsupported
	}
}

// SanitizeFilename replaces characters that are invalid in Windows file
// names. Leading and trailing spaces and trailing dots are removed.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`<>:"/\|?*`, r) || unicode.IsControl(r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimRight(strings.TrimSpace(b.String()), ". ")
	if out == "" {
		return "workbook"
	}
	return out
}

// OutputName returns the .xlsx file name written for src.
func OutputName(src string) string {
	base := filepath.Base(src)
	return SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base))) + ".xlsx"
}

// Backend is an acquired office application handle.
type Backend interface {
	Name() string
	// Convert writes src re-saved as an .xlsx workbook to dst.
	Convert(ctx context.Context, src, dst string) error
	// Close releases the application and any temporary state.
	Close() error
}

// Opener acquires a Backend.
type Opener func(ctx context.Context) (Backend, error)

// OpenerFor returns the Opener for a configured backend name:
// "soffice", "excelize" or "auto".
func OpenerFor(name, soffice string, timeout time.Duration) (Opener, error) {
	switch name {
	case "soffice":
		return func(ctx context.Context) (Backend, error) {
			b, err := OpenSoffice(ctx, soffice, timeout)
			if err != nil {
				return nil, err
			}
			return b, nil
		}, nil
	case "excelize":
		return func(ctx context.Context) (Backend, error) {
			return NewNative(), nil
		}, nil
	case "", "auto":
		return func(ctx context.Context) (Backend, error) {
			b, err := OpenSoffice(ctx, soffice, timeout)
			switch {
			case errors.Is(err, ErrNoOfficeApp):
				return NewNative(), nil
			case err != nil:
				return nil, err
			}
			return b, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown convert backend %q (use auto, soffice or excelize)", name)
	}
}
