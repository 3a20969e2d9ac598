package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/klytics/sheetkit/internal/formats/xlsx"
)

// FileResult reports what happened to one selected workbook.
type FileResult struct {
	Path    string   `json:"path"`
	Rows    int      `json:"rows"`
	Outputs []string `json:"outputs,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Summary describes a finished extraction run.
type Summary struct {
	OutDir    string       `json:"outDir"`
	Files     []FileResult `json:"files"`
	Combined  []string     `json:"combined,omitempty"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Rows      []Row        `json:"-"`
}

// Runner extracts a batch of workbooks and writes the result tables.
type Runner struct {
	Options Options
	OutDir  string
	Out     io.Writer
}

// NewRunner creates a Runner writing progress lines to out.
func NewRunner(opts Options, outDir string, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{Options: opts, OutDir: outDir, Out: out}
}

func (r *Runner) suffix() string {
	return "_" + r.Options.LabelCell + "_" + r.Options.ValueCell
}

// Run processes paths one at a time in the given order. A file that cannot
// be read or written is reported and skipped; the remaining files still run.
// The combined table is written only when at least one file succeeded.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	if err := r.Options.Validate(); err != nil {
		return nil, err
	}

	summary := &Summary{OutDir: r.OutDir}
	if len(paths) == 0 {
		return summary, nil
	}

	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", r.OutDir, err)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res, rows := r.runFile(path)
		summary.Files = append(summary.Files, res)
		if res.Error != "" {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.Rows = append(summary.Rows, rows...)
	}

	if summary.Succeeded == 0 {
		return summary, nil
	}

	base := filepath.Join(r.OutDir, "ALL_SELECTED_FILES"+r.suffix())
	outputs, err := xlsx.SaveTable(Table(summary.Rows, r.Options), base)
	if err != nil {
		return summary, fmt.Errorf("could not write combined results: %w", err)
	}
	summary.Combined = outputs

	return summary, nil
}

// RunFile extracts a single workbook and writes its per-file outputs.
func (r *Runner) RunFile(path string) FileResult {
	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}
	res, _ := r.runFile(path)
	return res
}

func (r *Runner) runFile(path string) (FileResult, []Row) {
	name := filepath.Base(path)
	res := FileResult{Path: path}
	fmt.Fprintf(r.Out, "Processing: %s\n", name)

	rows, err := ExtractFile(path, r.Options)
	if err != nil {
		color.New(color.FgRed).Fprintf(r.Out, "  ERROR reading %s: %v\n", name, err)
		res.Error = err.Error()
		return res, nil
	}
	res.Rows = len(rows)

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outputs, err := xlsx.SaveTable(Table(rows, r.Options), filepath.Join(r.OutDir, stem+r.suffix()))
	if err != nil {
		color.New(color.FgRed).Fprintf(r.Out, "  ERROR writing results for %s: %v\n", name, err)
		res.Error = err.Error()
		return res, nil
	}
	res.Outputs = outputs
	fmt.Fprintf(r.Out, "  Saved: %s\n", outputs[0])

	return res, rows
}
