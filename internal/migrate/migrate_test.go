package migrate

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_time_format=sqlite"
	db, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testScripts() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create widgets",
			Up:          "CREATE TABLE widgets (id INTEGER PRIMARY KEY);",
			Down:        "DROP TABLE widgets;",
		},
		{
			Version:     2,
			Description: "create gadgets",
			Up: `CREATE TABLE gadgets (id INTEGER PRIMARY KEY, widget_id INTEGER REFERENCES widgets(id));
CREATE INDEX idx_gadgets_widget ON gadgets(widget_id);`,
			Down: "DROP INDEX idx_gadgets_widget; DROP TABLE gadgets;",
		},
		{
			Version:     3,
			Description: "name widgets",
			Up:          "ALTER TABLE widgets ADD COLUMN name TEXT NOT NULL DEFAULT '';",
			Down:        "ALTER TABLE widgets DROP COLUMN name;",
		},
	}
}

func tableExists(t *testing.T, db *sqlx.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name))
	return n > 0
}

func TestInitialize_Idempotent(t *testing.T) {
	ctx := context.Background()
	l := New(openTestDB(t))

	require.NoError(t, l.Initialize(ctx))
	require.NoError(t, l.Initialize(ctx))

	versions, err := l.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, ok, err := l.LatestVersion(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrate_AppliesInOrderAndRecords(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	l := New(db, WithClock(func() time.Time { return fixed }))

	applied, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, applied)

	versions, err := l.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, versions)

	latest, ok, err := l.LatestVersion(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), latest)

	done, err := l.IsApplied(ctx, 2)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = l.IsApplied(ctx, 4)
	require.NoError(t, err)
	assert.False(t, done)

	recs, err := l.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "create widgets", recs[0].Description)
	assert.Equal(t, testScripts()[0].Checksum(), recs[0].Checksum)
	assert.True(t, fixed.Equal(recs[0].AppliedAt), "applied_at = %v", recs[0].AppliedAt)
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	l := New(openTestDB(t))

	_, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)
	before, err := l.Records(ctx)
	require.NoError(t, err)

	applied, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)
	assert.Empty(t, applied)

	after, err := l.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMigrate_PicksUpNewScripts(t *testing.T) {
	ctx := context.Background()
	l := New(openTestDB(t))

	_, err := l.Migrate(ctx, testScripts()[:1])
	require.NoError(t, err)

	applied, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, applied)
}

func TestMigrate_FailureRollsBackWholeBatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	l := New(db)

	scripts := testScripts()
	scripts[1].Up = "CREATE TABLE gadgets (id INTEGER PRIMARY KEY); THIS IS NOT SQL;"

	_, err := l.Migrate(ctx, scripts)
	require.Error(t, err)

	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, int64(2), merr.Version)

	versions, err := l.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.False(t, tableExists(t, db, "widgets"))
	assert.False(t, tableExists(t, db, "gadgets"))
}

func TestMigrate_RejectsBadOrdering(t *testing.T) {
	s := testScripts()
	tests := []struct {
		name    string
		scripts []Migration
	}{
		{name: "descending", scripts: []Migration{s[1], s[0]}},
		{name: "duplicate", scripts: []Migration{s[0], s[0]}},
		{name: "zero version", scripts: []Migration{{Version: 0, Up: "SELECT 1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			l := New(db)
			_, err := l.Migrate(context.Background(), tt.scripts)
			require.ErrorIs(t, err, ErrOrder)
			assert.False(t, tableExists(t, db, "widgets"))
		})
	}
}

func TestRollback_RoundTrip(t *testing.T) {
	for _, target := range []int64{0, 1, 2, 3} {
		t.Run("", func(t *testing.T) {
			ctx := context.Background()
			l := New(openTestDB(t))

			_, err := l.Migrate(ctx, testScripts())
			require.NoError(t, err)

			_, err = l.Rollback(ctx, testScripts(), &target)
			require.NoError(t, err)

			versions, err := l.AppliedVersions(ctx)
			require.NoError(t, err)
			want := []int64{}
			for v := int64(1); v <= target; v++ {
				want = append(want, v)
			}
			assert.Equal(t, want, versions)

			_, err = l.Migrate(ctx, testScripts())
			require.NoError(t, err)

			versions, err = l.AppliedVersions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 2, 3}, versions)
		})
	}
}

func TestRollback_NilTargetRollsBackEverythingNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	l := New(db)

	_, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)

	rolled, err := l.Rollback(ctx, testScripts(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, rolled)
	assert.False(t, tableExists(t, db, "widgets"))
	assert.False(t, tableExists(t, db, "gadgets"))
}

func TestRollback_MissingDownScriptRunsNothing(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	l := New(db)

	_, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)

	scripts := testScripts()
	scripts[1].Down = ""

	_, err = l.Rollback(ctx, scripts, nil)
	require.ErrorIs(t, err, ErrNoDownScript)

	versions, err := l.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, versions)
}

func TestRollback_StepwiseKeepsCompletedSteps(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	l := New(db)

	_, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)

	scripts := testScripts()
	scripts[0].Down = "DROP TABLE no_such_table;"

	rolled, err := l.Rollback(ctx, scripts, nil)
	require.Error(t, err)
	assert.Equal(t, []int64{3, 2}, rolled)

	versions, err := l.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, versions)
	assert.False(t, tableExists(t, db, "gadgets"))
}

func TestRollback_AtomicKeepsEverythingOnFailure(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	l := New(db, WithAtomicRollback(true))

	_, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)

	scripts := testScripts()
	scripts[0].Down = "DROP TABLE no_such_table;"

	_, err = l.Rollback(ctx, scripts, nil)
	require.Error(t, err)

	versions, err := l.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, versions)
	assert.True(t, tableExists(t, db, "gadgets"))
}

func TestMigrate_ChecksumDrift(t *testing.T) {
	ctx := context.Background()

	t.Run("warns by default", func(t *testing.T) {
		var buf bytes.Buffer
		db := openTestDB(t)
		l := New(db, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		_, err := l.Migrate(ctx, testScripts())
		require.NoError(t, err)

		changed := testScripts()
		changed[0].Up = "CREATE TABLE widgets (id INTEGER PRIMARY KEY, extra TEXT);"

		_, err = l.Migrate(ctx, changed)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "applied migration changed since it was recorded")

		status, err := l.Status(ctx, changed)
		require.NoError(t, err)
		require.Len(t, status, 3)
		assert.True(t, status[0].Drifted)
		assert.False(t, status[1].Drifted)
	})

	t.Run("fails when strict", func(t *testing.T) {
		db := openTestDB(t)
		l := New(db, WithStrictChecksums(true))

		_, err := l.Migrate(ctx, testScripts())
		require.NoError(t, err)

		changed := testScripts()
		changed[0].Up += "\n-- edited"
		changed = append(changed, Migration{Version: 4, Description: "noop", Up: "CREATE TABLE extra (id INTEGER);"})

		_, err = l.Migrate(ctx, changed)
		require.ErrorIs(t, err, ErrChecksumMismatch)

		applied, err := l.IsApplied(ctx, 4)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestStatus_PendingAndOrphaned(t *testing.T) {
	ctx := context.Background()
	l := New(openTestDB(t))

	_, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)

	scripts := append(testScripts()[:2], Migration{Version: 5, Description: "future", Up: "SELECT 1;"})
	status, err := l.Status(ctx, scripts)
	require.NoError(t, err)
	require.Len(t, status, 4)

	assert.Equal(t, int64(1), status[0].Version)
	assert.True(t, status[0].Applied)
	assert.NotNil(t, status[0].AppliedAt)

	assert.Equal(t, int64(3), status[2].Version)
	assert.True(t, status[2].Orphaned)

	assert.Equal(t, int64(5), status[3].Version)
	assert.False(t, status[3].Applied)
	assert.Nil(t, status[3].AppliedAt)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	l := New(db)

	_, err := l.Migrate(ctx, testScripts())
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO widgets (id, name) VALUES (1, 'sprocket')")
	require.NoError(t, err)

	applied, err := l.Reset(ctx, testScripts())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, applied)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM widgets"))
	assert.Zero(t, n)
}
