// Package aggregate provides the "sheetkit aggregate" command.
package aggregate

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	agg "github.com/klytics/sheetkit/internal/aggregate"
	"github.com/klytics/sheetkit/internal/audit"
	"github.com/klytics/sheetkit/internal/config"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/picker"
)

// NewCommand creates the "aggregate" command.
func NewCommand() *cobra.Command {
	var (
		groupsFile string
		cell       string
		label      string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "aggregate [workbook]",
		Short: "Sum one cell across named groups of sheets",
		Long: `Reads one cell from the sheets listed in each group of a groups file and
sums the numeric values per group. Writes a flat log (one row per sheet
plus a total row per group) as .xlsx and .csv, then prints the totals.

The groups file is YAML; see examples/week1.yaml. The workbook comes from
the argument, the groups file's "file" key, or aggregate.file in config.

Examples:
  sheetkit aggregate --groups examples/week1.yaml
  sheetkit aggregate week1.xlsx --groups week1.yaml --cell Z47
  sheetkit aggregate counts.xlsx --groups ramps.yaml --label ramps --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if groupsFile == "" {
				groupsFile = cfg.Aggregate.GroupsFile
			}
			if groupsFile == "" {
				return fmt.Errorf("no groups defined (use --groups or set aggregate.groups_file)")
			}
			gf, err := config.LoadGroupsFile(groupsFile)
			if err != nil {
				return err
			}

			opts := agg.Options{Cell: cfg.Aggregate.Cell, Label: cfg.Aggregate.Label, Groups: gf.Groups}
			if gf.Cell != "" {
				opts.Cell = gf.Cell
			}
			if gf.Name != "" {
				opts.Label = gf.Name
			}
			if cell != "" {
				opts.Cell = cell
			}
			if label != "" {
				opts.Label = label
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			file := cfg.Aggregate.File
			if gf.File != "" {
				// Relative workbook paths in a groups file are resolved next to it.
				file = gf.File
				if !filepath.IsAbs(file) {
					file = filepath.Join(filepath.Dir(config.ExpandHome(groupsFile)), file)
				}
			}
			if len(args) == 1 {
				file = args[0]
			}

			stdout := cmd.OutOrStdout()
			if file == "" {
				if jsonOut {
					return fmt.Errorf("no workbook given (the file prompt is not available with --json)")
				}
				files, err := picker.Select(nil, []string{".xlsx", ".xlsm"}, false, "Select the workbook to aggregate")
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(stdout, "No files selected. Exiting.")
					return nil
				}
				file = files[0]
			}

			run := audit.NewLogger(config.ExpandHome(cfg.Audit.File), cfg.Audit.Enabled).Start("aggregate")
			report, err := agg.AggregateFile(file, opts)
			if err != nil {
				run.Finish([]string{file}, nil, 0, 1, err)
				return err
			}
			outputs, err := report.Save(outDir)
			if err != nil {
				run.Finish([]string{file}, nil, 0, 1, err)
				return err
			}
			run.Finish([]string{file}, outputs, 1, 0, nil)

			if jsonOut {
				return output.PrintRunJSON(stdout, "aggregate", run.ID, map[string]any{
					"report":  report,
					"outputs": outputs,
				})
			}

			if err := report.WriteSummary(stdout); err != nil {
				return err
			}
			fmt.Fprintln(stdout)
			output.Success(stdout, "Aggregation saved")
			for _, p := range outputs {
				output.Field(stdout, "Output", p)
			}
			var missing int
			for _, t := range report.Totals {
				missing += t.Missing
			}
			if missing > 0 {
				output.Warn(stdout, "%d sheet(s) were missing or not numeric; see the notes column", missing)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&groupsFile, "groups", "g", "", "YAML file defining the sheet groups")
	cmd.Flags().StringVar(&cell, "cell", "", "Cell to read on every sheet (default from groups file or config, Z47)")
	cmd.Flags().StringVar(&label, "label", "", "Report name used in the summary and output file names")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output folder (default from config, OUTPUT)")

	return cmd
}
