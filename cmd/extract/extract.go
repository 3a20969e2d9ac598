// Package extract provides the "sheetkit extract" command.
package extract

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/config"
	ex "github.com/klytics/sheetkit/internal/extract"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/picker"
)

// NewCommand creates the "extract" command.
func NewCommand() *cobra.Command {
	var (
		startSheet int
		labelCell  string
		valueCell  string
		outDir     string
		recursive  bool
	)

	cmd := &cobra.Command{
		Use:   "extract [file|folder|pattern]...",
		Short: "Read a label and a value cell from every sheet of each workbook",
		Long: `Reads two fixed cells from every sheet of each selected workbook, starting
at a 1-based sheet position, and writes one table per workbook plus a
combined table for the whole selection (.xlsx and .csv).

With no arguments on a terminal, you are prompted for files.

Examples:
  sheetkit extract week1.xlsx week2.xlsx
  sheetkit extract ./counts --start-sheet 3
  sheetkit extract '*.xlsm' --label-cell B2 --value-cell F10 --out-dir results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			opts := ex.Options{
				StartSheet: cfg.Extract.StartSheet,
				LabelCell:  cfg.Extract.LabelCell,
				ValueCell:  cfg.Extract.ValueCell,
			}
			if cmd.Flags().Changed("start-sheet") {
				opts.StartSheet = startSheet
			}
			if labelCell != "" {
				opts.LabelCell = labelCell
			}
			if valueCell != "" {
				opts.ValueCell = valueCell
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			if jsonOut && len(args) == 0 {
				return fmt.Errorf("no files given (the file prompt is not available with --json)")
			}
			files, err := picker.Select(args, ex.Extensions, recursive, "Select Excel file(s) to extract")
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(stdout, "No files selected. Exiting.")
				return nil
			}

			progressOut := stdout
			if jsonOut {
				progressOut = io.Discard
			}

			run := audit.NewLogger(config.ExpandHome(cfg.Audit.File), cfg.Audit.Enabled).Start("extract")
			summary, err := ex.NewRunner(opts, outDir, progressOut).Run(cmd.Context(), files)
			if err != nil {
				run.Finish(files, nil, 0, len(files), err)
				return err
			}
			outputs := summary.Combined
			for _, f := range summary.Files {
				outputs = append(outputs, f.Outputs...)
			}
			run.Finish(files, outputs, summary.Succeeded, summary.Failed, nil)

			if jsonOut {
				return output.PrintRunJSON(stdout, "extract", run.ID, summary)
			}

			fmt.Fprintln(stdout)
			if summary.Succeeded == 0 {
				output.Warn(stdout, "No files were processed successfully.")
				return nil
			}
			output.Success(stdout, "Extraction complete: %d file(s), %d row(s)", summary.Succeeded, len(summary.Rows))
			for _, p := range summary.Combined {
				output.Field(stdout, "Combined", p)
			}
			output.Field(stdout, "Output", summary.OutDir)
			if summary.Failed > 0 {
				output.Warn(stdout, "%d file(s) failed", summary.Failed)
				for _, f := range summary.Files {
					if f.Error != "" {
						output.Fail(stdout, "%s: %s", filepath.Base(f.Path), f.Error)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&startSheet, "start-sheet", 2, "1-based position of the first sheet to read")
	cmd.Flags().StringVar(&labelCell, "label-cell", "", "Label cell (default from config, A21)")
	cmd.Flags().StringVar(&valueCell, "value-cell", "", "Value cell (default from config, Z46)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output folder (default from config, OUTPUT)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Scan folders recursively")

	return cmd
}
