package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/klytics/sheetkit/internal/progress"
)

// Action is what happened to one input file.
type Action string

const (
	ActionCopied    Action = "copied"
	ActionConverted Action = "converted"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

const macroNote = "macros are NOT kept in .xlsx output."

var newSpinner = progress.NewSpinner

// Outcome records the result of processing one file.
type Outcome struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Action Action `json:"action"`
	Error  string `json:"error,omitempty"`
	Note   string `json:"note,omitempty"`
}

// Summary counts a finished run. Skipped files are also counted in Failed.
type Summary struct {
	OutDir    string    `json:"outDir"`
	Backend   string    `json:"backend,omitempty"`
	Outcomes  []Outcome `json:"outcomes"`
	Copied    int       `json:"copied"`
	Converted int       `json:"converted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

// Outputs lists the files written during the run.
func (s *Summary) Outputs() []string {
	var out []string
	for _, o := range s.Outcomes {
		if o.Output != "" && (o.Action == ActionCopied || o.Action == ActionConverted) {
			out = append(out, o.Output)
		}
	}
	return out
}

// Session processes files one at a time against a single backend. The
// backend is acquired on the first file that needs it.
type Session struct {
	OutDir string
	Out    io.Writer

	opener  Opener
	backend Backend
	summary Summary
}

// NewSession creates a Session writing into outDir.
func NewSession(outDir string, opener Opener, out io.Writer) *Session {
	if out == nil {
		out = io.Discard
	}
	return &Session{
		OutDir:  outDir,
		Out:     out,
		opener:  opener,
		summary: Summary{OutDir: outDir},
	}
}

// Process copies or converts path into the output directory. Per-file
// failures are recorded in the Outcome. The returned error is non-nil only
// when the backend could not be acquired, which ends the run.
func (s *Session) Process(ctx context.Context, path string) (Outcome, error) {
	name := filepath.Base(path)
	out := Outcome{Input: path}
	fmt.Fprintf(s.Out, "\nProcessing: %s\n", name)

	kind := Classify(path)
	if kind == KindUnsupported {
		ext := strings.ToLower(filepath.Ext(path))
		out.Action = ActionSkipped
		out.Error = "not an Excel extension"
		fmt.Fprintf(s.Out, "  Skipped (not an Excel extension): %s\n", ext)
		return s.record(out), nil
	}

	if err := os.MkdirAll(s.OutDir, 0755); err != nil {
		return s.fail(out, fmt.Errorf("could not create output directory %s: %w", s.OutDir, err)), nil
	}
	out.Output = filepath.Join(s.OutDir, OutputName(path))

	if kind == KindCopy {
		if err := copyFile(path, out.Output, true); err != nil {
			return s.fail(out, err), nil
		}
		out.Action = ActionCopied
		fmt.Fprintf(s.Out, "  Copied to: %s\n", out.Output)
		return s.record(out), nil
	}

	backend, err := s.acquire(ctx)
	if err != nil {
		return s.fail(out, err), fmt.Errorf("could not start office application: %w", err)
	}

	spin := newSpinner("Converting " + name + " with " + backend.Name())
	spin.Start()
	if err := backend.Convert(ctx, path, out.Output); err != nil {
		spin.Fail("Could not convert " + name)
		return s.fail(out, err), nil
	}
	spin.Stop("Converted " + name)

	out.Action = ActionConverted
	fmt.Fprintf(s.Out, "  Converted to: %s\n", out.Output)
	if strings.EqualFold(filepath.Ext(path), ".xlsm") {
		out.Note = macroNote
		fmt.Fprintf(s.Out, "  Note: %s\n", macroNote)
	}
	return s.record(out), nil
}

func (s *Session) acquire(ctx context.Context) (Backend, error) {
	if s.backend != nil {
		return s.backend, nil
	}
	b, err := s.opener(ctx)
	if err != nil {
		return nil, err
	}
	s.backend = b
	s.summary.Backend = b.Name()
	return b, nil
}

func (s *Session) fail(out Outcome, err error) Outcome {
	out.Action = ActionFailed
	out.Output = ""
	out.Error = err.Error()
	color.New(color.FgRed).Fprintf(s.Out, "  FAILED: %v\n", err)
	return s.record(out)
}

func (s *Session) record(out Outcome) Outcome {
	switch out.Action {
	case ActionCopied:
		s.summary.Copied++
	case ActionConverted:
		s.summary.Converted++
	case ActionSkipped:
		s.summary.Skipped++
		s.summary.Failed++
	default:
		s.summary.Failed++
	}
	s.summary.Outcomes = append(s.summary.Outcomes, out)
	return out
}

// Summary returns a copy of the counters so far.
func (s *Session) Summary() *Summary {
	sum := s.summary
	sum.Outcomes = append([]Outcome(nil), s.summary.Outcomes...)
	return &sum
}

// Close releases the backend if one was acquired. It is safe to call more
// than once.
func (s *Session) Close() error {
	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	return err
}

// WriteDone prints the closing counts block.
func (s *Summary) WriteDone(w io.Writer) {
	fmt.Fprintln(w, "\n=== DONE ===")
	fmt.Fprintf(w, "Copied (.xlsx): %d\n", s.Copied)
	fmt.Fprintf(w, "Converted (.xls/.xlsm -> .xlsx): %d\n", s.Converted)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Output folder: %s\n", s.OutDir)
}

// Run converts files in order through one Session and prints the DONE
// block. The backend is released before Run returns, even when the run
// is aborted.
func Run(ctx context.Context, files []string, outDir string, opener Opener, out io.Writer) (summary *Summary, err error) {
	s := NewSession(outDir, opener, out)
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not release office application: %w", cerr)
		}
	}()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return s.Summary(), err
		}
		if _, err := s.Process(ctx, f); err != nil {
			return s.Summary(), err
		}
	}

	summary = s.Summary()
	summary.WriteDone(s.Out)
	return summary, nil
}

// copyFile copies src to dst. With keepMeta the mode and modification time
// are carried over.
func copyFile(src, dst string, keepMeta bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if dinfo, err := os.Stat(dst); err == nil && os.SameFile(info, dinfo) {
		return fmt.Errorf("%s is already in the output folder", filepath.Base(src))
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	mode := os.FileMode(0644)
	if keepMeta {
		mode = info.Mode().Perm()
	}
	w, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if !keepMeta {
		return nil
	}
	if err := os.Chmod(dst, mode); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
