// Package cmd contains all CLI commands for the sheetkit binary.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/cmd/aggregate"
	"github.com/klytics/sheetkit/cmd/completion"
	cmdconfig "github.com/klytics/sheetkit/cmd/config"
	"github.com/klytics/sheetkit/cmd/convert"
	"github.com/klytics/sheetkit/cmd/doctor"
	"github.com/klytics/sheetkit/cmd/extract"
	"github.com/klytics/sheetkit/cmd/history"
	"github.com/klytics/sheetkit/cmd/version"
	cmdwatch "github.com/klytics/sheetkit/cmd/watch"
	"github.com/klytics/sheetkit/internal/config"
	conv "github.com/klytics/sheetkit/internal/formats/convert"
	"github.com/klytics/sheetkit/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	configFile string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetkit",
		Short: "Batch tools for Excel workbooks",
		Long: `sheetkit reads fixed cells out of many Excel workbooks at once, sums cells
across named groups of sheets, and brings .xls/.xlsm files into .xlsx.

Results are written as .xlsx and .csv into an output folder next to where
you run the command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}
			if configFile != "" {
				config.SetConfigFile(configFile)
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "config: %s\n", config.ConfigPath())
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.sheetkit/config.yaml)")

	// Register subcommands
	rootCmd.AddCommand(extract.NewCommand())
	rootCmd.AddCommand(aggregate.NewCommand())
	rootCmd.AddCommand(convert.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(history.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	c, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	if jsonOutput {
		code := output.ExitUserError
		if errors.Is(err, conv.ErrNoOfficeApp) {
			code = output.ExitSystemError
		}
		name := rootCmd.Name()
		if c != nil {
			name = c.Name()
		}
		output.PrintJSONError(os.Stdout, name, err, code)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(output.ExitUserError)
}
