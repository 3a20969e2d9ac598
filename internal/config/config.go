// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Output struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"output"`
	Extract struct {
		StartSheet int    `mapstructure:"start_sheet"`
		LabelCell  string `mapstructure:"label_cell"`
		ValueCell  string `mapstructure:"value_cell"`
	} `mapstructure:"extract"`
	Aggregate struct {
		File       string `mapstructure:"file"`
		Cell       string `mapstructure:"cell"`
		Label      string `mapstructure:"label"`
		GroupsFile string `mapstructure:"groups_file"`
	} `mapstructure:"aggregate"`
	Convert struct {
		OutDir  string        `mapstructure:"out_dir"`
		Backend string        `mapstructure:"backend"`
		Soffice string        `mapstructure:"soffice"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"convert"`
	Audit struct {
		Enabled bool   `mapstructure:"enabled"`
		File    string `mapstructure:"file"`
	} `mapstructure:"audit"`
	Watch struct {
		DebounceMs int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
}

// configFile overrides the default config location when set through --config.
var configFile string

// SetConfigFile points Load at an explicit config file.
func SetConfigFile(path string) {
	configFile = path
}

// Load reads the configuration from ~/.sheetkit/config.yaml and environment variables.
func Load() (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
	}

	setDefaults()

	// Environment variable overrides: SHEETKIT_EXTRACT_START_SHEET etc.
	viper.SetEnvPrefix("SHEETKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("output.dir", "OUTPUT")
	viper.SetDefault("extract.start_sheet", 2)
	viper.SetDefault("extract.label_cell", "A21")
	viper.SetDefault("extract.value_cell", "Z46")
	viper.SetDefault("aggregate.file", "")
	viper.SetDefault("aggregate.cell", "Z47")
	viper.SetDefault("aggregate.label", "week1")
	viper.SetDefault("aggregate.groups_file", "")
	viper.SetDefault("convert.out_dir", "CONVERTED_XLSX")
	viper.SetDefault("convert.backend", "auto")
	viper.SetDefault("convert.soffice", "")
	viper.SetDefault("convert.timeout", 2*time.Minute)
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.file", filepath.Join(configDir(), "runs.log"))
	viper.SetDefault("watch.debounce_ms", 500)
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetkit"
	}
	return filepath.Join(home, ".sheetkit")
}

// ExpandHome resolves a leading ~/ against the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
