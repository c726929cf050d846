package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/evorbrain/internal/migrate"
	"github.com/nhle/evorbrain/internal/model"
)

// Connection defaults.
const (
	DefaultBusyTimeout = 10 * time.Second
	DefaultSynchronous = "NORMAL"
)

// maxInParams bounds how many IDs go into one IN (...) clause.
const maxInParams = 500

// tables maps each entity kind to its table.
var tables = map[model.Kind]string{
	model.KindLifeArea: "life_areas",
	model.KindGoal:     "goals",
	model.KindProject:  "projects",
	model.KindTask:     "tasks",
	model.KindNote:     "notes",
}

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	ledger *migrate.Ledger
	logger *slog.Logger
	now    func() time.Time
}

type options struct {
	logger          *slog.Logger
	busyTimeout     time.Duration
	synchronous     string
	strictChecksums bool
	atomicRollback  bool
	autoMigrate     bool
	clock           func() time.Time
}

// Option configures NewSQLiteStore.
type Option func(*options)

// WithLogger sets the logger for the store and its migration ledger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBusyTimeout sets how long writers wait on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithSynchronous sets the SQLite synchronous mode.
func WithSynchronous(mode string) Option {
	return func(o *options) { o.synchronous = strings.ToUpper(mode) }
}

// WithStrictChecksums fails startup when an applied migration changed.
func WithStrictChecksums(strict bool) Option {
	return func(o *options) { o.strictChecksums = strict }
}

// WithAtomicRollback makes migration rollbacks all-or-nothing.
func WithAtomicRollback(atomic bool) Option {
	return func(o *options) { o.atomicRollback = atomic }
}

// WithAutoMigrate controls whether pending migrations are applied on open.
// The migrate commands turn it off so they can inspect the ledger first.
func WithAutoMigrate(enabled bool) Option {
	return func(o *options) { o.autoMigrate = enabled }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// DSN builds a modernc.org/sqlite data source name that applies the
// connection pragmas to every pooled connection.
func DSN(dbPath string, busyTimeout time.Duration, synchronous string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", synchronous))
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Set("_time_format", "sqlite")
	q.Set("_txlock", "immediate")
	return dbPath + "?" + q.Encode()
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath in WAL
// mode with foreign keys on, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := options{
		logger:      slog.New(slog.DiscardHandler),
		busyTimeout: DefaultBusyTimeout,
		synchronous: DefaultSynchronous,
		autoMigrate: true,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	db, err := sqlx.Open("sqlite", DSN(dbPath, o.busyTimeout, o.synchronous))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite db %s: %w", dbPath, err)
	}

	clock := o.clock
	s := &SQLiteStore{
		db:     db,
		logger: o.logger,
		now:    func() time.Time { return clock().UTC() },
		ledger: migrate.New(db,
			migrate.WithLogger(o.logger),
			migrate.WithStrictChecksums(o.strictChecksums),
			migrate.WithAtomicRollback(o.atomicRollback),
			migrate.WithClock(clock),
		),
	}

	if o.autoMigrate {
		applied, err := s.ledger.Migrate(context.Background(), Migrations)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		if len(applied) > 0 {
			s.logger.Info("database schema updated", "path", dbPath, "applied", applied)
		}
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the connection pool.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

// Ledger returns the migration ledger bound to this database.
func (s *SQLiteStore) Ledger() *migrate.Ledger {
	return s.ledger
}

// inTx runs fn in one transaction and commits only if it succeeds.
// op names the work in the commit error.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbErr("committing "+op, err)
	}
	return nil
}

// exists reports whether a row of kind with id exists and whether it is
// archived.
func exists(ctx context.Context, q sqlx.QueryerContext, kind model.Kind, id string) (found, archived bool, err error) {
	var archivedAt sql.NullTime
	err = sqlx.GetContext(ctx, q, &archivedAt,
		"SELECT archived_at FROM "+tables[kind]+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, dbErr(fmt.Sprintf("looking up %s %s", kind.Label(), id), err)
	}
	return true, archivedAt.Valid, nil
}

// requireActive fails unless kind/id exists and is not archived. It is
// used before attaching a new child to a parent.
func requireActive(ctx context.Context, q sqlx.QueryerContext, kind model.Kind, id string) error {
	found, archived, err := exists(ctx, q, kind, id)
	if err != nil {
		return err
	}
	if !found {
		return notFound(kind, id)
	}
	if archived {
		return fmt.Errorf("%w: %s %s is archived", ErrValidation, kind.Label(), id)
	}
	return nil
}

// chunks splits ids into slices of at most maxInParams.
func chunks(ids []string) [][]string {
	var out [][]string
	for len(ids) > maxInParams {
		out = append(out, ids[:maxInParams])
		ids = ids[maxInParams:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// execIn runs query, which must contain one "IN (?)" placeholder as its
// last argument, once per chunk of ids and returns the total rows affected.
func execIn(ctx context.Context, tx *sqlx.Tx, query string, args []any, ids []string) (int, error) {
	total := 0
	for _, chunk := range chunks(ids) {
		q, qargs, err := sqlx.In(query, append(append([]any{}, args...), chunk)...)
		if err != nil {
			return total, err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(q), qargs...)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += int(n)
	}
	return total, nil
}

// selectIn is the query counterpart of execIn for single-column results.
func selectIn(ctx context.Context, tx *sqlx.Tx, query string, ids []string) ([]string, error) {
	var out []string
	for _, chunk := range chunks(ids) {
		q, qargs, err := sqlx.In(query, chunk)
		if err != nil {
			return nil, err
		}
		var got []string
		if err := tx.SelectContext(ctx, &got, tx.Rebind(q), qargs...); err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return out, nil
}

// likePattern escapes LIKE wildcards in s for use with ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
