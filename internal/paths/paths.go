// Package paths resolves configuration and data directory locations and
// guards the database file location against escaping its data directory.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName is the directory name used under the platform config and data roots.
const AppName = "evorbrain"

// DefaultDatabaseFile is the database file name inside the data directory.
const DefaultDatabaseFile = "evorbrain.db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "EVORBRAIN_CONFIG_DIR"
	EnvDataDir   = "EVORBRAIN_DATA_DIR"
)

// ErrSecurity is returned when a requested path is absolute or resolves
// outside of its base directory.
var ErrSecurity = errors.New("security violation")

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/evorbrain (fallback ~/.config/evorbrain)
// macOS:   ~/Library/Application Support/evorbrain
// Windows: %APPDATA%/evorbrain
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/evorbrain (fallback ~/.local/share/evorbrain)
// Others:  same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	}
	return DefaultConfigDir()
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > EVORBRAIN_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config file value > EVORBRAIN_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// ValidatePath resolves requested relative to base and returns the
// resulting absolute path. Absolute requests and anything that resolves
// outside base (including through symlinks) fail with ErrSecurity.
func ValidatePath(base, requested string) (string, error) {
	if filepath.IsAbs(requested) || strings.HasPrefix(requested, "/") {
		return "", fmt.Errorf("%w: absolute paths are not allowed", ErrSecurity)
	}

	root, err := canonical(base)
	if err != nil {
		return "", fmt.Errorf("resolving base directory %s: %w", base, err)
	}

	target, err := canonical(filepath.Join(root, requested))
	if err != nil {
		return "", fmt.Errorf("resolving path %s: %w", requested, err)
	}

	if !within(root, target) {
		return "", fmt.Errorf("%w: path traversal attempt detected", ErrSecurity)
	}
	return target, nil
}

// ValidateFilename checks that name is a single plain path element.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: filename cannot be empty", ErrSecurity)
	case name == "." || name == "..":
		return fmt.Errorf("%w: invalid filename %q", ErrSecurity, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: filename cannot contain path separators", ErrSecurity)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: filename cannot contain null bytes", ErrSecurity)
	}
	return nil
}

// DatabasePath creates dataDir if needed and returns the validated
// location of file inside it.
func DatabasePath(dataDir, file string) (string, error) {
	if file == "" {
		file = DefaultDatabaseFile
	}
	if err := ValidateFilename(file); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	return ValidatePath(dataDir, file)
}

// canonical returns an absolute, symlink-free form of p. Trailing
// components that do not exist yet are appended lexically to the
// deepest existing ancestor.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	var missing []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, missing...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		missing = append([]string{filepath.Base(cur)}, missing...)
		cur = parent
	}
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
