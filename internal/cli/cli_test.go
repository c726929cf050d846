package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness runs the CLI against a private data directory and config path.
type harness struct {
	t      *testing.T
	dir    string
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{t: t, dir: filepath.Join(dir, "data"), config: filepath.Join(dir, "config.yaml")}
}

func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--data-dir", h.dir, "--config", h.config}, args...)
	code = Run(full, &out, &errOut)
	return code, out.String(), errOut.String()
}

// create runs a --json create command and returns the new entity's ID.
func (h *harness) create(args ...string) string {
	h.t.Helper()
	code, out, errOut := h.run(append([]string{"--json"}, args...)...)
	require.Equal(h.t, exitSuccess, code, errOut)
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(out), &v), out)
	require.NotEmpty(h.t, v.ID)
	return v.ID
}

func TestHierarchyLifecycle(t *testing.T) {
	h := newHarness(t)

	area := h.create("area", "create", "--name", "Health")
	goal := h.create("goal", "create", "--area", area, "--title", "Run a marathon")
	project := h.create("project", "create", "--goal", goal, "--name", "Training plan")
	task := h.create("task", "create", "--project", project, "--title", "Long run", "--due", "2025-05-01")
	h.create("note", "create", "--title", "Route", "--project", project)

	code, _, errOut := h.run("task", "complete", task)
	require.Equal(t, exitSuccess, code, errOut)

	code, out, _ := h.run("--json", "project", "get", project)
	require.Equal(t, exitSuccess, code)
	var p struct {
		Progress int `json:"progress"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 100, p.Progress)

	code, _, errOut = h.run("project", "delete", project)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "Error:")

	code, out, _ = h.run("--json", "project", "archive", project)
	require.Equal(t, exitSuccess, code)
	var res struct {
		Archived map[string]int `json:"archived"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, map[string]int{"project": 1, "task": 1, "note": 1}, res.Archived)

	code, out, _ = h.run("project", "list", "--goal", goal)
	require.Equal(t, exitSuccess, code)
	assert.NotContains(t, out, "Training plan")

	code, out, _ = h.run("project", "list", "--goal", goal, "--archived")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Training plan")

	code, _, errOut = h.run("project", "restore", project)
	require.Equal(t, exitSuccess, code, errOut)
}

func TestValidationErrorsAreUserErrors(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.run("area", "create")
	assert.Equal(t, exitUserError, code)

	code, _, _ = h.run("task", "create", "--title", "x", "--due", "tomorrow")
	assert.Equal(t, exitUserError, code)

	code, _, _ = h.run("goal", "get", "8c0f2a57-2f0d-4a4b-9d55-5f0c1d0b3e21")
	assert.Equal(t, exitUserError, code)

	code, _, _ = h.run("area", "list", "--no-such-flag")
	assert.Equal(t, exitUserError, code)

	code, _, _ = h.run("migrate", "reset")
	assert.Equal(t, exitUserError, code)
}

func TestInvalidConfigIsUserError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.config, []byte("log:\n  level: loud\n"), 0o600))

	code, _, errOut := h.run("stats")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "config")
}

func TestMigrateStatusAndHealth(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run("--json", "migrate", "status")
	require.Equal(t, exitSuccess, code, errOut)
	var entries []struct {
		Version int64 `json:"version"`
		Applied bool  `json:"applied"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	assert.False(t, entries[0].Applied)

	code, _, errOut = h.run("migrate", "up")
	require.Equal(t, exitSuccess, code, errOut)

	code, out, errOut = h.run("--json", "health")
	require.Equal(t, exitSuccess, code, errOut)
	var report struct {
		OK          bool   `json:"ok"`
		JournalMode string `json:"journal_mode"`
		ForeignKeys bool   `json:"foreign_keys"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.OK)
	assert.Equal(t, "wal", report.JournalMode)
	assert.True(t, report.ForeignKeys)
}

func TestStatsCountsRows(t *testing.T) {
	h := newHarness(t)
	h.create("area", "create", "--name", "Work")

	code, out, _ := h.run("--json", "stats")
	require.Equal(t, exitSuccess, code)
	var st struct {
		Active map[string]int `json:"active"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 1, st.Active["life_area"])
}

func TestTagAssignment(t *testing.T) {
	h := newHarness(t)
	area := h.create("area", "create", "--name", "Home")
	goal := h.create("goal", "create", "--area", area, "--title", "Tidy")
	project := h.create("project", "create", "--goal", goal, "--name", "Garage")
	task := h.create("task", "create", "--project", project, "--title", "Sort tools")
	tag := h.create("tag", "create", "--name", "weekend")

	code, _, errOut := h.run("task", "tag", task, tag)
	require.Equal(t, exitSuccess, code, errOut)

	code, out, _ := h.run("task", "get", task)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "weekend")
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("config", "init")
	require.Equal(t, exitSuccess, code, errOut)
	assert.FileExists(t, h.config)

	code, _, _ = h.run("config", "init")
	assert.Equal(t, exitUserError, code)

	code, out, _ := h.run("--json", "config", "show")
	require.Equal(t, exitSuccess, code)
	var shown struct {
		Path   string `json:"path"`
		Config struct {
			Database struct {
				Synchronous string `json:"synchronous"`
			} `json:"database"`
		} `json:"config"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, h.config, shown.Path)
	assert.Equal(t, "NORMAL", shown.Config.Database.Synchronous)
}

func TestExportAndBatchCommands(t *testing.T) {
	h := newHarness(t)
	area := h.create("area", "create", "--name", "Home")
	goal := h.create("goal", "create", "--area", area, "--title", "Tidy")
	project := h.create("project", "create", "--goal", goal, "--name", "Garage")
	first := h.create("task", "create", "--project", project, "--title", "Sort tools")
	second := h.create("task", "create", "--project", project, "--title", "Sweep")

	code, out, errOut := h.run("--json", "task", "archive", first, second)
	require.Equal(t, exitSuccess, code, errOut)
	var batch struct {
		Affected int            `json:"affected"`
		Archived map[string]int `json:"archived"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, 2, batch.Affected)
	assert.Equal(t, 2, batch.Archived["task"])

	code, out, _ = h.run("export")
	require.Equal(t, exitSuccess, code)
	var dump struct {
		ItemCount int               `json:"item_count"`
		Tasks     []json.RawMessage `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dump))
	assert.Empty(t, dump.Tasks)
	assert.Equal(t, 3, dump.ItemCount)

	path := filepath.Join(t.TempDir(), "backup.json")
	code, _, errOut = h.run("export", "--archived", "--output", path)
	require.Equal(t, exitSuccess, code, errOut)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &dump))
	assert.Len(t, dump.Tasks, 2)

	code, _, _ = h.run("project", "delete", project, goal)
	assert.Equal(t, exitUserError, code)

	code, _, errOut = h.run("task", "delete", first, second)
	require.Equal(t, exitSuccess, code, errOut)
	code, _, _ = h.run("task", "get", first)
	assert.Equal(t, exitUserError, code)
}

func TestTaskUpdateClearDue(t *testing.T) {
	h := newHarness(t)
	task := h.create("task", "create", "--title", "Call dentist", "--due", "2025-05-01")

	code, _, _ := h.run("task", "update", task, "--due", "2025-05-02", "--clear-due")
	assert.Equal(t, exitUserError, code)

	code, out, errOut := h.run("--json", "task", "update", task, "--clear-due")
	require.Equal(t, exitSuccess, code, errOut)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotContains(t, v, "due_date")
}
