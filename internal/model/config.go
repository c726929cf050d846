package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nhle/evorbrain/internal/paths"
)

// DatabaseConfig holds connection settings for the embedded database.
type DatabaseConfig struct {
	// File is the database file name inside the data directory.
	File string `mapstructure:"file" yaml:"file" json:"file"`

	// BusyTimeoutMS bounds how long a writer waits on a locked database.
	BusyTimeoutMS int `mapstructure:"busy_timeout_ms" yaml:"busy_timeout_ms" json:"busy_timeout_ms"`

	// Synchronous is the SQLite synchronous mode (OFF, NORMAL, FULL, EXTRA).
	Synchronous string `mapstructure:"synchronous" yaml:"synchronous" json:"synchronous"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// File, when set, is a file name inside the data directory that
	// receives log output instead of stderr.
	File string `mapstructure:"file" yaml:"file" json:"file"`
}

// MigrationConfig controls the schema migration ledger.
type MigrationConfig struct {
	// StrictChecksums turns a checksum mismatch on an applied migration
	// into an error instead of a warning.
	StrictChecksums bool `mapstructure:"strict_checksums" yaml:"strict_checksums" json:"strict_checksums"`

	// AtomicRollback runs a multi-step rollback inside one transaction.
	AtomicRollback bool `mapstructure:"atomic_rollback" yaml:"atomic_rollback" json:"atomic_rollback"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	ShowArchived bool `mapstructure:"show_archived" yaml:"show_archived" json:"show_archived"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	DataDir    string          `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	Database   DatabaseConfig  `mapstructure:"database" yaml:"database" json:"database"`
	Log        LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	Migrations MigrationConfig `mapstructure:"migrations" yaml:"migrations" json:"migrations"`
	Display    DisplayConfig   `mapstructure:"display" yaml:"display" json:"display"`
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			File:          paths.DefaultDatabaseFile,
			BusyTimeoutMS: 10000,
			Synchronous:   "NORMAL",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks enumerated settings.
func (c *AppConfig) Validate() error {
	switch strings.ToUpper(c.Database.Synchronous) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid database.synchronous %q: must be OFF, NORMAL, FULL or EXTRA", c.Database.Synchronous)
	}
	if c.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}
	if err := paths.ValidateFilename(c.Database.File); err != nil {
		return fmt.Errorf("invalid database.file: %w", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q: must be debug, info, warn or error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}
	if c.Log.File != "" {
		if err := paths.ValidateFilename(c.Log.File); err != nil {
			return fmt.Errorf("invalid log.file: %w", err)
		}
	}
	return nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// EVORBRAIN_* environment variables override file values.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("EVORBRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	def := DefaultAppConfig()
	v.SetDefault("data_dir", "")
	v.SetDefault("database.file", def.Database.File)
	v.SetDefault("database.busy_timeout_ms", def.Database.BusyTimeoutMS)
	v.SetDefault("database.synchronous", def.Database.Synchronous)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("migrations.strict_checksums", false)
	v.SetDefault("migrations.atomic_rollback", false)
	v.SetDefault("display.show_archived", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("data_dir", cfg.DataDir)
	v.Set("database", cfg.Database)
	v.Set("log", cfg.Log)
	v.Set("migrations", cfg.Migrations)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
