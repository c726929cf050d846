// Package migrate applies and rolls back versioned schema scripts and
// records them in the _migrations ledger table.
//
// Migrate applies a whole batch inside one transaction. Rollback runs one
// transaction per version unless the ledger is built WithAtomicRollback,
// so a failure partway through a default rollback leaves the versions
// above the failing one rolled back.
package migrate

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

// Table is the name of the ledger table.
const Table = "_migrations"

const createTable = `
CREATE TABLE IF NOT EXISTS _migrations (
	version     INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at  TIMESTAMP NOT NULL,
	checksum    TEXT NOT NULL
)`

var (
	// ErrOrder is returned when scripts are not in strictly ascending
	// version order or a version is not positive.
	ErrOrder = errors.New("migrations out of order")

	// ErrChecksumMismatch is returned in strict mode when an applied
	// script's body no longer matches the recorded checksum.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")

	// ErrNoDownScript is returned when a rollback needs a version whose
	// script is unknown or has no down script.
	ErrNoDownScript = errors.New("no down script")
)

// Migration is one versioned schema change. It must not be edited once
// released.
type Migration struct {
	Version     int64
	Description string
	Up          string
	Down        string
}

// Checksum returns the hex sha256 digest of the up script.
func (m Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.Up))
	return hex.EncodeToString(sum[:])
}

// Record is one row of the ledger.
type Record struct {
	Version     int64     `json:"version" db:"version"`
	Description string    `json:"description" db:"description"`
	AppliedAt   time.Time `json:"applied_at" db:"applied_at"`
	Checksum    string    `json:"checksum" db:"checksum"`
}

// StatusEntry describes one version as seen by Status.
type StatusEntry struct {
	Version     int64      `json:"version"`
	Description string     `json:"description"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`

	// Drifted is set when the script body changed after it was applied.
	Drifted bool `json:"drifted,omitempty"`

	// Orphaned is set for ledger rows with no matching script.
	Orphaned bool `json:"orphaned,omitempty"`
}

// Error wraps a failure of one migration step.
type Error struct {
	Version int64
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s migration v%d: %v", e.Op, e.Version, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Ledger tracks which migrations have been applied to a database.
type Ledger struct {
	db     *sqlx.DB
	logger *slog.Logger
	strict bool
	atomic bool
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for progress and checksum warnings.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Ledger) {
		if l != nil {
			lg.logger = l
		}
	}
}

// WithStrictChecksums makes Migrate fail on checksum drift instead of
// logging a warning.
func WithStrictChecksums(strict bool) Option {
	return func(lg *Ledger) { lg.strict = strict }
}

// WithAtomicRollback runs Rollback inside a single transaction.
func WithAtomicRollback(atomic bool) Option {
	return func(lg *Ledger) { lg.atomic = atomic }
}

// WithClock overrides the time source for applied_at.
func WithClock(now func() time.Time) Option {
	return func(lg *Ledger) { lg.now = now }
}

// New creates a ledger over db.
func New(db *sqlx.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:     db,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Initialize creates the ledger table if it does not exist.
func (l *Ledger) Initialize(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("creating %s table: %w", Table, err)
	}
	return nil
}

// IsApplied reports whether version has a ledger row.
func (l *Ledger) IsApplied(ctx context.Context, version int64) (bool, error) {
	return isApplied(ctx, l.db, version)
}

// LatestVersion returns the highest applied version. ok is false when
// nothing has been applied.
func (l *Ledger) LatestVersion(ctx context.Context) (version int64, ok bool, err error) {
	var v sql.NullInt64
	if err := l.db.GetContext(ctx, &v, "SELECT MAX(version) FROM "+Table); err != nil {
		return 0, false, fmt.Errorf("reading latest migration version: %w", err)
	}
	return v.Int64, v.Valid, nil
}

// AppliedVersions returns the applied versions in ascending order.
func (l *Ledger) AppliedVersions(ctx context.Context) ([]int64, error) {
	versions := []int64{}
	if err := l.db.SelectContext(ctx, &versions,
		"SELECT version FROM "+Table+" ORDER BY version ASC"); err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	return versions, nil
}

// Records returns every ledger row in ascending version order.
func (l *Ledger) Records(ctx context.Context) ([]Record, error) {
	return records(ctx, l.db)
}

// Migrate applies every script in scripts that is not yet recorded, in
// list order, inside a single transaction. It returns the versions it
// applied. On error nothing from the batch is kept.
func (l *Ledger) Migrate(ctx context.Context, scripts []Migration) ([]int64, error) {
	if err := checkOrder(scripts); err != nil {
		return nil, err
	}
	if err := l.Initialize(ctx); err != nil {
		return nil, err
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	if err := l.verify(ctx, tx, scripts); err != nil {
		return nil, err
	}

	applied := []int64{}
	for _, m := range scripts {
		done, err := isApplied(ctx, tx, m.Version)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}

		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			return nil, &Error{Version: m.Version, Op: "applying", Err: err}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+Table+" (version, description, applied_at, checksum) VALUES (?, ?, ?, ?)",
			m.Version, m.Description, l.now().UTC(), m.Checksum(),
		); err != nil {
			return nil, &Error{Version: m.Version, Op: "recording", Err: err}
		}
		applied = append(applied, m.Version)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing migrations: %w", err)
	}

	for _, v := range applied {
		l.logger.Info("applied migration", "version", v)
	}
	return applied, nil
}

// Rollback runs the down script of every applied version greater than
// target, newest first, and removes its ledger row. A nil target rolls
// back everything. It returns the versions rolled back.
func (l *Ledger) Rollback(ctx context.Context, scripts []Migration, target *int64) ([]int64, error) {
	var to int64
	if target != nil {
		to = *target
	}
	if to < 0 {
		return nil, fmt.Errorf("invalid rollback target %d", to)
	}
	if err := l.Initialize(ctx); err != nil {
		return nil, err
	}

	byVersion := make(map[int64]Migration, len(scripts))
	for _, m := range scripts {
		byVersion[m.Version] = m
	}

	applied, err := l.AppliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var steps []Migration
	for i := len(applied) - 1; i >= 0; i-- {
		v := applied[i]
		if v <= to {
			break
		}
		m, ok := byVersion[v]
		if !ok || m.Down == "" {
			return nil, &Error{Version: v, Op: "rolling back", Err: ErrNoDownScript}
		}
		steps = append(steps, m)
	}
	if len(steps) == 0 {
		return []int64{}, nil
	}

	if l.atomic {
		return l.rollbackAtomic(ctx, steps)
	}
	return l.rollbackEach(ctx, steps)
}

func (l *Ledger) rollbackEach(ctx context.Context, steps []Migration) ([]int64, error) {
	done := []int64{}
	for _, m := range steps {
		tx, err := l.db.BeginTxx(ctx, nil)
		if err != nil {
			return done, fmt.Errorf("beginning rollback transaction: %w", err)
		}
		if err := rollbackStep(ctx, tx, m); err != nil {
			tx.Rollback()
			return done, err
		}
		if err := tx.Commit(); err != nil {
			return done, &Error{Version: m.Version, Op: "committing rollback of", Err: err}
		}
		l.logger.Info("rolled back migration", "version", m.Version)
		done = append(done, m.Version)
	}
	return done, nil
}

func (l *Ledger) rollbackAtomic(ctx context.Context, steps []Migration) ([]int64, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning rollback transaction: %w", err)
	}
	defer tx.Rollback()

	done := make([]int64, 0, len(steps))
	for _, m := range steps {
		if err := rollbackStep(ctx, tx, m); err != nil {
			return nil, err
		}
		done = append(done, m.Version)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing rollback: %w", err)
	}
	for _, v := range done {
		l.logger.Info("rolled back migration", "version", v)
	}
	return done, nil
}

func rollbackStep(ctx context.Context, tx *sqlx.Tx, m Migration) error {
	if _, err := tx.ExecContext(ctx, m.Down); err != nil {
		return &Error{Version: m.Version, Op: "rolling back", Err: err}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+Table+" WHERE version = ?", m.Version); err != nil {
		return &Error{Version: m.Version, Op: "unrecording", Err: err}
	}
	return nil
}

// Status reports every known script and every ledger row, ordered by
// version.
func (l *Ledger) Status(ctx context.Context, scripts []Migration) ([]StatusEntry, error) {
	if err := l.Initialize(ctx); err != nil {
		return nil, err
	}
	recs, err := records(ctx, l.db)
	if err != nil {
		return nil, err
	}

	byVersion := make(map[int64]Record, len(recs))
	for _, r := range recs {
		byVersion[r.Version] = r
	}

	entries := make([]StatusEntry, 0, len(scripts))
	known := make(map[int64]bool, len(scripts))
	for _, m := range scripts {
		known[m.Version] = true
		e := StatusEntry{Version: m.Version, Description: m.Description}
		if r, ok := byVersion[m.Version]; ok {
			at := r.AppliedAt
			e.Applied = true
			e.AppliedAt = &at
			e.Drifted = r.Checksum != m.Checksum()
		}
		entries = append(entries, e)
	}
	for _, r := range recs {
		if known[r.Version] {
			continue
		}
		at := r.AppliedAt
		entries = append(entries, StatusEntry{
			Version:     r.Version,
			Description: r.Description,
			Applied:     true,
			AppliedAt:   &at,
			Orphaned:    true,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

// Reset rolls everything back, drops the ledger table and applies
// scripts again from scratch. It is meant for development databases.
func (l *Ledger) Reset(ctx context.Context, scripts []Migration) ([]int64, error) {
	var zero int64
	if _, err := l.Rollback(ctx, scripts, &zero); err != nil {
		return nil, fmt.Errorf("resetting: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+Table); err != nil {
		return nil, fmt.Errorf("dropping %s table: %w", Table, err)
	}
	l.logger.Warn("migration ledger reset")
	return l.Migrate(ctx, scripts)
}

// verify compares recorded checksums with the current script bodies.
func (l *Ledger) verify(ctx context.Context, q sqlx.QueryerContext, scripts []Migration) error {
	recs, err := records(ctx, q)
	if err != nil {
		return err
	}
	byVersion := make(map[int64]Record, len(recs))
	for _, r := range recs {
		byVersion[r.Version] = r
	}

	for _, m := range scripts {
		r, ok := byVersion[m.Version]
		if !ok || r.Checksum == m.Checksum() {
			continue
		}
		if l.strict {
			return &Error{Version: m.Version, Op: "verifying", Err: ErrChecksumMismatch}
		}
		l.logger.Warn("applied migration changed since it was recorded",
			"version", m.Version,
			"recorded", r.Checksum,
			"current", m.Checksum(),
		)
	}
	return nil
}

func checkOrder(scripts []Migration) error {
	var prev int64
	for i, m := range scripts {
		if m.Version < 1 {
			return fmt.Errorf("%w: version %d must be positive", ErrOrder, m.Version)
		}
		if i > 0 && m.Version <= prev {
			return fmt.Errorf("%w: version %d listed after %d", ErrOrder, m.Version, prev)
		}
		prev = m.Version
	}
	return nil
}

func isApplied(ctx context.Context, q sqlx.QueryerContext, version int64) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n,
		"SELECT COUNT(*) FROM "+Table+" WHERE version = ?", version); err != nil {
		return false, fmt.Errorf("checking migration v%d: %w", version, err)
	}
	return n > 0, nil
}

func records(ctx context.Context, q sqlx.QueryerContext) ([]Record, error) {
	recs := []Record{}
	if err := sqlx.SelectContext(ctx, q, &recs,
		"SELECT version, description, applied_at, checksum FROM "+Table+" ORDER BY version ASC"); err != nil {
		return nil, fmt.Errorf("querying %s: %w", Table, err)
	}
	return recs, nil
}
