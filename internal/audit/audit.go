// Package audit keeps an append-only JSON-lines journal of sheetkit runs.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one journal line.
type Entry struct {
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	Inputs     []string  `json:"inputs"`
	Outputs    []string  `json:"outputs,omitempty"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Logger appends entries to FilePath when Enabled.
type Logger struct {
	FilePath string
	Enabled  bool
}

// NewLogger creates a Logger.
func NewLogger(filePath string, enabled bool) *Logger {
	return &Logger{FilePath: filePath, Enabled: enabled}
}

// Run measures one command invocation.
type Run struct {
	ID      string
	Command string
	Started time.Time
	logger  *Logger
}

// Start begins a run of command with a fresh run ID.
func (l *Logger) Start(command string) *Run {
	return &Run{
		ID:      uuid.New().String(),
		Command: command,
		Started: time.Now(),
		logger:  l,
	}
}

// Finish records the run. runErr, when set, is stored as the entry error.
func (r *Run) Finish(inputs, outputs []string, succeeded, failed int, runErr error) error {
	e := Entry{
		RunID:      r.ID,
		Timestamp:  r.Started.UTC(),
		Command:    r.Command,
		Inputs:     inputs,
		Outputs:    outputs,
		Succeeded:  succeeded,
		Failed:     failed,
		DurationMs: time.Since(r.Started).Milliseconds(),
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	return r.logger.Log(e)
}

// Log appends entry. A disabled logger writes nothing.
func (l *Logger) Log(entry Entry) error {
	if l == nil || !l.Enabled || l.FilePath == "" {
		return nil
	}
	if entry.RunID == "" {
		entry.RunID = uuid.New().String()
	}

	if err := os.MkdirAll(filepath.Dir(l.FilePath), 0755); err != nil {
		return fmt.Errorf("could not create journal directory: %w", err)
	}

	f, err := os.OpenFile(l.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open journal: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadEntries reads every entry in the journal. A missing file yields no
// entries; malformed lines are skipped.
func ReadEntries(filePath string) ([]Entry, error) {
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// FilterEntries keeps entries at or after since whose command contains command.
func FilterEntries(entries []Entry, since time.Time, command string) []Entry {
	var result []Entry
	for _, e := range entries {
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if command != "" && !strings.Contains(e.Command, command) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// LogSize returns the journal size in bytes, or 0 if it does not exist.
func LogSize(filePath string) int64 {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Clear empties the journal. A missing journal is not an error.
func Clear(filePath string) error {
	err := os.Truncate(filePath, 0)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
