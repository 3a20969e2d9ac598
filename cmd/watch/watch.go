// Package watch provides the "sheetkit watch" command.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/config"
	ex "github.com/klytics/sheetkit/internal/extract"
	conv "github.com/klytics/sheetkit/internal/formats/convert"
	"github.com/klytics/sheetkit/internal/output"
	w "github.com/klytics/sheetkit/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		action    string
		recursive bool
		debounce  int
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "watch <directory> [directory...]",
		Short: "Extract or convert workbooks as they appear in a folder",
		Long: `Watches directories for new or modified workbooks and runs extract or
convert on each one once it stops changing. Files are handled one at a
time. Office lock files (~$*, .~*) are ignored.

Press Ctrl+C to stop.

Examples:
  sheetkit watch ./incoming
  sheetkit watch ./incoming --action convert -r`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = cfg.Watch.DebounceMs
			}

			var (
				exts    []string
				handler w.Handler
				cleanup func() error
			)
			stdout := cmd.OutOrStdout()

			switch action {
			case "extract":
				opts := ex.Options{
					StartSheet: cfg.Extract.StartSheet,
					LabelCell:  cfg.Extract.LabelCell,
					ValueCell:  cfg.Extract.ValueCell,
				}
				if err := opts.Validate(); err != nil {
					return err
				}
				if outDir == "" {
					outDir = cfg.Output.Dir
				}
				runner := ex.NewRunner(opts, outDir, stdout)
				exts = ex.Extensions
				handler = func(ctx context.Context, path string) error {
					if res := runner.RunFile(path); res.Error != "" {
						return errors.New(res.Error)
					}
					return nil
				}
			case "convert":
				if outDir == "" {
					outDir = cfg.Convert.OutDir
				}
				opener, err := conv.OpenerFor(cfg.Convert.Backend, cfg.Convert.Soffice, cfg.Convert.Timeout)
				if err != nil {
					return err
				}
				session := conv.NewSession(outDir, opener, stdout)
				cleanup = session.Close
				exts = conv.Extensions
				handler = func(ctx context.Context, path string) error {
					out, err := session.Process(ctx, path)
					if err != nil {
						return err
					}
					if out.Error != "" {
						return errors.New(out.Error)
					}
					return nil
				}
			default:
				return fmt.Errorf("unknown action %q (use extract or convert)", action)
			}

			watcher, err := w.New(w.Config{
				Directories: args,
				Extensions:  exts,
				Recursive:   recursive,
				Debounce:    time.Duration(debounce) * time.Millisecond,
				Exclude:     []string{outDir},
			})
			if err != nil {
				return err
			}
			watcher.Handler = handler

			output.Header(stdout, "Watching %d directory(ies) for %s files (%s)", len(args), strings.Join(exts, ", "), action)
			fmt.Fprintln(stdout, "Press Ctrl+C to stop")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					fmt.Fprintln(stdout, "\nStopping watcher...")
					cancel()
				case <-ctx.Done():
				}
			}()

			err = watcher.Start(ctx)
			if cleanup != nil {
				if cerr := cleanup(); cerr != nil && err == nil {
					err = fmt.Errorf("could not release office application: %w", cerr)
				}
			}

			var processed, failed int
			for _, e := range watcher.Events() {
				if e.Status == "error" {
					failed++
				} else {
					processed++
				}
			}
			output.Field(stdout, "Processed", processed)
			output.Field(stdout, "Failed", failed)
			return err
		},
	}

	cmd.Flags().StringVar(&action, "action", "extract", "What to run on each workbook: extract | convert")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Milliseconds a file must stay unchanged before it is handled")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output folder (default from config)")

	return cmd
}
