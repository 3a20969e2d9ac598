package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	successStyle = color.New(color.FgGreen)
	warnStyle    = color.New(color.FgYellow)
	failStyle    = color.New(color.FgRed)
)

// Header prints a bold cyan section title.
func Header(w io.Writer, format string, args ...any) {
	headerStyle.Fprintf(w, format+"\n", args...)
}

// Success prints a green line prefixed with a check mark.
func Success(w io.Writer, format string, args ...any) {
	successStyle.Fprintf(w, "✓ "+format+"\n", args...)
}

// Warn prints a yellow warning line.
func Warn(w io.Writer, format string, args ...any) {
	warnStyle.Fprintf(w, "⚠ "+format+"\n", args...)
}

// Fail prints a red line.
func Fail(w io.Writer, format string, args ...any) {
	failStyle.Fprintf(w, "✗ "+format+"\n", args...)
}

// Field prints an aligned "label: value" line.
func Field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %-10s %v\n", label+":", value)
}
