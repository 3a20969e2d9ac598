package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidCell is returned for a cell coordinate that is not in A1 form.
var ErrInvalidCell = errors.New("invalid cell coordinate")

// Backends lists the accepted values for convert.backend.
var Backends = []string{"auto", "soffice", "excelize"}

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// ValidateCell checks that cell is an A1-style coordinate such as "Z46".
func ValidateCell(cell string) error {
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidCell, cell, err)
	}
	return nil
}

// WriteDefaults saves a config file holding only the defaults.
func WriteDefaults() error {
	setDefaults()
	for _, key := range viper.AllKeys() {
		viper.Set(key, viper.Get(key))
	}
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	for _, key := range []string{"extract.label_cell", "extract.value_cell", "aggregate.cell"} {
		if err := ValidateCell(viper.GetString(key)); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      key,
				Severity: "error",
				Message:  err.Error(),
				Fix:      fmt.Sprintf("sheetkit config set %s A21", key),
			})
		}
	}

	if start := viper.GetInt("extract.start_sheet"); start < 1 {
		issues = append(issues, ConfigIssue{
			Key:      "extract.start_sheet",
			Severity: "error",
			Message:  fmt.Sprintf("start sheet must be 1 or greater, got %d", start),
			Fix:      "sheetkit config set extract.start_sheet 2",
		})
	}

	backend := viper.GetString("convert.backend")
	known := false
	for _, b := range Backends {
		if b == backend {
			known = true
		}
	}
	if !known {
		issues = append(issues, ConfigIssue{
			Key:      "convert.backend",
			Severity: "error",
			Message:  fmt.Sprintf("unknown conversion backend %q (supported: %s)", backend, strings.Join(Backends, ", ")),
			Fix:      "sheetkit config set convert.backend auto",
		})
	}

	if backend != "excelize" {
		if bin := FindSoffice(viper.GetString("convert.soffice")); bin == "" {
			sev := "warning"
			if backend == "soffice" {
				sev = "error"
			}
			issues = append(issues, ConfigIssue{
				Key:      "convert.soffice",
				Severity: sev,
				Message:  "LibreOffice (soffice) not found — .xls files cannot be converted",
				Fix:      "install LibreOffice or: sheetkit config set convert.soffice /path/to/soffice",
			})
		} else {
			issues = append(issues, ConfigIssue{
				Key:      "convert.soffice",
				Severity: "info",
				Message:  "LibreOffice found at " + bin,
			})
		}
	}

	if groups := viper.GetString("aggregate.groups_file"); groups != "" {
		if _, err := os.Stat(ExpandHome(groups)); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "aggregate.groups_file",
				Severity: "warning",
				Message:  fmt.Sprintf("groups file %s is not readable: %v", groups, err),
			})
		}
	}

	return issues
}

// FindSoffice returns the LibreOffice binary to use, or "" when none is found.
// An explicit path wins; otherwise PATH is searched for soffice and libreoffice.
func FindSoffice(explicit string) string {
	if explicit != "" {
		if p, err := exec.LookPath(ExpandHome(explicit)); err == nil {
			return p
		}
		return ""
	}
	for _, name := range []string{"soffice", "libreoffice"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	viper.Reset()
	setDefaults()
	return nil
}

// SaveConfig writes the current config to the config file.
func SaveConfig() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(configDir(), "config.yaml")
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range viper.AllKeys() {
		v := viper.GetString(key)
		if v == "" {
			continue
		}
		env["SHEETKIT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = v
	}
	return env
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sections := map[string][]string{}
	for _, key := range viper.AllKeys() {
		section, _, _ := strings.Cut(key, ".")
		sections[section] = append(sections[section], key)
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		keys := sections[name]
		sort.Strings(keys)
		sb.WriteString(name + "\n")
		for _, key := range keys {
			_, field, _ := strings.Cut(key, ".")
			sb.WriteString(fmt.Sprintf("  %-13s %s\n", field+":", viper.GetString(key)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
