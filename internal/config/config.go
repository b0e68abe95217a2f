package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Desktop DesktopConfig `mapstructure:"desktop"`
	Logging LoggingConfig `mapstructure:"logging"`
	Deb     DebConfig     `mapstructure:"deb"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	// AppsRoot is the managed application root: one subdirectory per
	// logical application name.
	AppsRoot string `mapstructure:"apps_root"`
	// DataDir holds the tracking database and all logs.
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// DesktopConfig contains desktop integration configuration
type DesktopConfig struct {
	// WrapperName is the filename of the shared launch wrapper installed
	// under ~/.local/bin.
	WrapperName string `mapstructure:"wrapper_name"`
	// ElectronNoSandbox passes --no-sandbox to detected Electron apps.
	ElectronNoSandbox bool     `mapstructure:"electron_no_sandbox"`
	Categories        []string `mapstructure:"categories"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// DebConfig contains native-package installation configuration
type DebConfig struct {
	// Escalator is the privilege escalation command: "pkexec", "sudo",
	// or "auto" to prefer pkexec when available.
	Escalator string `mapstructure:"escalator"`
	// ResolveDependencies attempts to pre-install declared dependencies
	// before invoking the package tool.
	ResolveDependencies bool `mapstructure:"resolve_dependencies"`
}

// Default returns a configuration with every field at its default,
// independent of any config file or environment
func Default() *Config {
	return &Config{
		Desktop: DesktopConfig{
			WrapperName:       "squashmate-launch",
			ElectronNoSandbox: true,
			Categories:        []string{"Utility"},
		},
		Logging: LoggingConfig{Level: "info", Color: "auto"},
		Deb:     DebConfig{Escalator: "auto", ResolveDependencies: true},
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".config", "squashmate"))
	}
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("SQUASHMATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.AppsRoot = expandPath(cfg.Paths.AppsRoot)
	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "squashmate")

	viper.SetDefault("paths.apps_root", filepath.Join(homeDir, "Applications"))
	viper.SetDefault("paths.data_dir", dataDir)
	viper.SetDefault("paths.db_file", filepath.Join(dataDir, "tracked.db"))
	viper.SetDefault("paths.log_file", filepath.Join(dataDir, "squashmate.log"))

	viper.SetDefault("desktop.wrapper_name", "squashmate-launch")
	viper.SetDefault("desktop.electron_no_sandbox", true)
	viper.SetDefault("desktop.categories", []string{"Utility"})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.color", "auto")

	viper.SetDefault("deb.escalator", "auto")
	viper.SetDefault("deb.resolve_dependencies", true)
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
