package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDataDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_DATA_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
		got, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/evorbrain", got)
	})

	t.Run("falls back to ~/.local/share when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		orig := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "/home/tester", nil }
		t.Cleanup(func() { platformDir.homeDir = orig })

		got, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/home/tester", ".local", "share", "evorbrain"), got)
	})
}

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	got, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-config/evorbrain", got)
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name        string
		flag        string
		configValue string
		env         string
		want        string
	}{
		{name: "flag wins", flag: "/flag", configValue: "/cfg", env: "/env", want: "/flag"},
		{name: "config before env", configValue: "/cfg", env: "/env", want: "/cfg"},
		{name: "env when nothing else", env: "/env", want: "/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir_FallsBackToDefault(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	want, err := DefaultDataDir()
	require.NoError(t, err)

	got, err := ResolveDataDir("", "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveConfigDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/opt/evorbrain")
	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/evorbrain", got)
}

func TestValidatePath(t *testing.T) {
	base := t.TempDir()
	root, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)

	t.Run("accepts a relative file inside base", func(t *testing.T) {
		got, err := ValidatePath(base, "evorbrain.db")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "evorbrain.db"), got)
	})

	t.Run("accepts a nested path that stays inside base", func(t *testing.T) {
		got, err := ValidatePath(base, "backups/../evorbrain.db")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "evorbrain.db"), got)
	})

	t.Run("accepts a missing subdirectory", func(t *testing.T) {
		got, err := ValidatePath(base, filepath.Join("archive", "old.db"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "archive", "old.db"), got)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := ValidatePath(base, "../../etc/passwd")
		require.ErrorIs(t, err, ErrSecurity)
		assert.Contains(t, err.Error(), "path traversal attempt detected")
	})

	t.Run("rejects absolute paths", func(t *testing.T) {
		_, err := ValidatePath(base, "/etc/passwd")
		require.ErrorIs(t, err, ErrSecurity)
		assert.Contains(t, err.Error(), "absolute paths are not allowed")
	})

	t.Run("rejects symlinks pointing outside base", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlinks need elevated privileges on windows")
		}
		outside := t.TempDir()
		require.NoError(t, os.Symlink(outside, filepath.Join(base, "escape")))

		_, err := ValidatePath(base, filepath.Join("escape", "evorbrain.db"))
		require.ErrorIs(t, err, ErrSecurity)
	})
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain", input: "evorbrain.db"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dot dot", input: "..", wantErr: true},
		{name: "forward slash", input: "a/b.db", wantErr: true},
		{name: "back slash", input: `a\b.db`, wantErr: true},
		{name: "null byte", input: "a\x00.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSecurity)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDatabasePath_CreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")

	got, err := DatabasePath(dataDir, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabaseFile, filepath.Base(got))

	info, err := os.Stat(dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
