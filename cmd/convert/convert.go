// Package convert provides the "sheetkit convert" command.
package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/config"
	conv "github.com/klytics/sheetkit/internal/formats/convert"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/picker"
)

// NewCommand creates the "convert" command.
func NewCommand() *cobra.Command {
	var (
		outDir    string
		backend   string
		soffice   string
		timeout   time.Duration
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "convert [file|folder|pattern]...",
		Short: "Bring .xls, .xlsx and .xlsm workbooks into one .xlsx folder",
		Long: `Copies .xlsx files unchanged and converts .xls and .xlsm files to .xlsx in
the output folder. Files with any other extension are skipped.

Backends:
  soffice   LibreOffice headless; converts .xls and .xlsm
  excelize  pure Go; converts .xlsm only (VBA is removed)
  auto      soffice when installed, otherwise excelize (default)

Macros are NOT kept in .xlsx output.

Examples:
  sheetkit convert old.xls report.xlsm data.xlsx
  sheetkit convert ./archive -r --out-dir converted
  sheetkit convert '*.xlsm' --backend excelize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Convert.OutDir
			}
			if backend == "" {
				backend = cfg.Convert.Backend
			}
			if soffice == "" {
				soffice = cfg.Convert.Soffice
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.Convert.Timeout
			}

			opener, err := conv.OpenerFor(backend, soffice, timeout)
			if err != nil {
				return err
			}

			if jsonOut && len(args) == 0 {
				return fmt.Errorf("no files given (the file prompt is not available with --json)")
			}
			files, err := picker.Select(args, conv.Extensions, recursive, "Select Excel file(s) to convert")
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

			run := audit.NewLogger(config.ExpandHome(cfg.Audit.File), cfg.Audit.Enabled).Start("convert")
			summary, runErr := conv.Run(cmd.Context(), files, outDir, opener, progressOut)
			if summary != nil {
				run.Finish(files, summary.Outputs(), summary.Copied+summary.Converted, summary.Failed, runErr)
			}
			if runErr != nil {
				return runErr
			}

			if jsonOut {
				return output.PrintRunJSON(stdout, "convert", run.ID, summary)
			}

			fmt.Fprintln(stdout)
			if summary.Copied+summary.Converted == 0 {
				output.Warn(stdout, "No files were processed successfully.")
				return nil
			}
			output.Success(stdout, "Conversion complete: %d copied, %d converted", summary.Copied, summary.Converted)
			if summary.Backend != "" {
				output.Field(stdout, "Backend", summary.Backend)
			}
			if summary.Failed > 0 {
				output.Warn(stdout, "%d file(s) failed or were skipped", summary.Failed)
				for _, o := range summary.Outcomes {
					if o.Error != "" {
						output.Fail(stdout, "%s: %s", filepath.Base(o.Input), o.Error)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output folder (default from config, CONVERTED_XLSX)")
	cmd.Flags().StringVar(&backend, "backend", "", "Conversion backend: auto | soffice | excelize")
	cmd.Flags().StringVar(&soffice, "soffice", "", "Path to the LibreOffice soffice binary")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Per-file LibreOffice timeout")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Scan folders recursively")

	return cmd
}
