// Package doctor provides the "sheetkit doctor" command for checking system health.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetkit/internal/config"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system health and dependencies",
		Long:  "Run diagnostic checks to verify sheetkit can read, write and convert workbooks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			checks := runChecks(cfg)
			out := cmd.OutOrStdout()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(out).Encode(checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintln(out, "sheetkit doctor")
			fmt.Fprintln(out, "===============")
			fmt.Fprintln(out)

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(cfg *config.Config) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	path := config.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: path})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found, using defaults (run 'sheetkit config init')",
		})
	}

	for _, issue := range config.Validate() {
		if issue.Severity == "error" && issue.Key != "convert.soffice" {
			checks = append(checks, Check{Name: "Config " + issue.Key, Status: "error", Message: issue.Message})
		}
	}

	for _, dir := range []string{cfg.Output.Dir, cfg.Convert.OutDir} {
		checks = append(checks, checkWritable(dir))
	}

	if bin := config.FindSoffice(cfg.Convert.Soffice); bin != "" {
		checks = append(checks, Check{Name: "LibreOffice", Status: "ok", Message: bin})
	} else {
		status := "warning"
		if strings.EqualFold(cfg.Convert.Backend, "soffice") {
			status = "error"
		}
		checks = append(checks, Check{
			Name:    "LibreOffice",
			Status:  status,
			Message: "soffice not found; .xls conversion unavailable (.xlsm still converts with the excelize backend)",
		})
	}

	return checks
}

// checkWritable reports whether files can be created in dir. A directory
// that does not exist yet is judged by its nearest existing parent.
func checkWritable(dir string) Check {
	name := "Output " + dir
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Check{Name: name, Status: "error", Message: err.Error()}
	}

	probe := abs
	for {
		if info, err := os.Stat(probe); err == nil {
			if !info.IsDir() {
				return Check{Name: name, Status: "error", Message: probe + " is not a directory"}
			}
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return Check{Name: name, Status: "error", Message: "no existing parent directory"}
		}
		probe = parent
	}

	f, err := os.CreateTemp(probe, ".sheetkit-doctor-*")
	if err != nil {
		return Check{Name: name, Status: "error", Message: fmt.Sprintf("%s is not writable: %v", probe, err)}
	}
	f.Close()
	os.Remove(f.Name())

	if probe != abs {
		return Check{Name: name, Status: "ok", Message: abs + " (created on first run)"}
	}
	return Check{Name: name, Status: "ok", Message: abs}
}
