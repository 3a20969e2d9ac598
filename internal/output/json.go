// Package output holds the JSON envelope and console styling shared by
// every command.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klytics/sheetkit/cmd/version"
)

// Exit codes.
const (
	ExitUserError   = 1 // bad flags, missing file, invalid config
	ExitSystemError = 2 // office application or IO failure
)

// JSONResult is the envelope every --json response is wrapped in.
type JSONResult struct {
	OK      bool   `json:"ok"`
	Command string `json:"command"`
	Version string `json:"version"`
	RunID   string `json:"runId,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PrintJSON writes a success envelope around data.
func PrintJSON(w io.Writer, cmd string, data any) error {
	return encode(w, JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	})
}

// PrintRunJSON is PrintJSON for commands that record a journal run.
func PrintRunJSON(w io.Writer, cmd, runID string, data any) error {
	return encode(w, JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		RunID:   runID,
		Data:    data,
	})
}

// PrintJSONError writes a failure envelope.
func PrintJSONError(w io.Writer, cmd string, err error, code int) error {
	if encErr := encode(w, JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

func encode(w io.Writer, v JSONResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
