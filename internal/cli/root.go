// Package cli implements the evorbrain command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/logging"
	"github.com/nhle/evorbrain/internal/migrate"
	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/paths"
	"github.com/nhle/evorbrain/internal/store"
	"github.com/nhle/evorbrain/internal/theme"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configPath string
	dataDir    string
	logLevel   string
	jsonMode   bool
}

// env is the per-invocation state shared by subcommands. The store is
// opened on first use so that commands which never touch the database
// (help, version) do not create one.
type env struct {
	flags   rootFlags
	cfg     *model.AppConfig
	cfgPath string
	dataDir string
	logger  *slog.Logger
	closers []io.Closer
	store   *store.SQLiteStore
	stdout  io.Writer
	stderr  io.Writer
}

// usageError marks a failure caused by bad input rather than the system.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "evorbrain" command with global flags
// and all subcommands registered.
func NewRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "evorbrain",
		Short: "A local-first planner for life areas, goals, projects and tasks",
		Long: `evorbrain organizes work as a hierarchy of life areas, goals, projects
and tasks with notes attached at any level. Everything lives in a single
SQLite database in the data directory.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&e.flags.configPath, "config", "", "config file (default: <config dir>/config.yaml)")
	root.PersistentFlags().StringVar(&e.flags.dataDir, "data-dir", "", "data directory (default: $EVORBRAIN_DATA_DIR or the platform data dir)")
	root.PersistentFlags().StringVar(&e.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&e.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newMigrateCmd(e),
		newAreaCmd(e),
		newGoalCmd(e),
		newProjectCmd(e),
		newTaskCmd(e),
		newNoteCmd(e),
		newTagCmd(e),
		newStatsCmd(e),
		newCleanupCmd(e),
		newHealthCmd(e),
		newExportCmd(e),
		newConfigCmd(e),
		newTUICmd(e),
	)
	return root
}

// Execute runs the CLI against the process arguments and returns the exit
// code.
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes args and reports errors on stderr. It returns the process
// exit code: 1 for user errors, 2 for system errors.
func Run(args []string, stdout, stderr io.Writer) int {
	e := &env{stdout: stdout, stderr: stderr, logger: logging.Discard()}
	root := NewRootCmd(e)
	root.SetArgs(args)

	err := root.Execute()
	if err != nil && exitCode(err) == exitSysError {
		e.logger.Error("command failed", "args", args, "err", err)
	}
	if cerr := e.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return exitSuccess
	}

	fmt.Fprintln(stderr, theme.ErrorStyle.Render("Error:"), err)
	return exitCode(err)
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrSecurity),
		errors.Is(err, migrate.ErrNoDownScript):
		return exitUserError
	}
	return exitSysError
}

// setup loads the configuration and builds the logger.
func (e *env) setup() error {
	cfgPath := e.flags.configPath
	if cfgPath == "" {
		dir, err := paths.ResolveConfigDir("")
		if err != nil {
			return fmt.Errorf("resolving config directory: %w", err)
		}
		cfgPath = filepath.Join(dir, "config.yaml")
	}

	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return usageError{err}
	}
	if e.flags.logLevel != "" {
		cfg.Log.Level = e.flags.logLevel
	}
	e.cfg = cfg
	e.cfgPath = cfgPath

	e.dataDir, err = paths.ResolveDataDir(e.flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	logger, closer, err := logging.New(cfg.Log, e.dataDir, e.stderr)
	if err != nil {
		return usageError{err}
	}
	e.logger = logger
	e.closers = append(e.closers, closer)
	e.logger.Debug("configuration loaded", "config", cfgPath, "data_dir", e.dataDir)
	return nil
}

// open returns the store, opening it on first use. With autoMigrate off
// the schema is left as it is so the migrate commands can inspect it.
func (e *env) open(autoMigrate bool) (*store.SQLiteStore, error) {
	if e.store != nil {
		return e.store, nil
	}
	dbPath, err := paths.DatabasePath(e.dataDir, e.cfg.Database.File)
	if err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(dbPath,
		store.WithLogger(e.logger),
		store.WithBusyTimeout(time.Duration(e.cfg.Database.BusyTimeoutMS)*time.Millisecond),
		store.WithSynchronous(e.cfg.Database.Synchronous),
		store.WithStrictChecksums(e.cfg.Migrations.StrictChecksums),
		store.WithAtomicRollback(e.cfg.Migrations.AtomicRollback),
		store.WithAutoMigrate(autoMigrate),
	)
	if err != nil {
		return nil, err
	}
	e.store = s
	return s, nil
}

// db is open(true) for the entity commands.
func (e *env) db() (*store.SQLiteStore, error) {
	return e.open(true)
}

func (e *env) close() error {
	var errs []error
	if e.store != nil {
		errs = append(errs, e.store.Close())
		e.store = nil
	}
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
