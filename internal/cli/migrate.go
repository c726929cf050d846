package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/store"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect and change the database schema version",
	}
	cmd.AddCommand(
		newMigrateStatusCmd(e),
		newMigrateUpCmd(e),
		newMigrateDownCmd(e),
		newMigrateResetCmd(e),
	)
	return cmd
}

func newMigrateStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(false)
			if err != nil {
				return err
			}
			entries, err := s.Ledger().Status(ctxOf(cmd), store.Migrations)
			if err != nil {
				return err
			}
			return e.emit(entries, func(w io.Writer) {
				rows := make([][]string, len(entries))
				for i, m := range entries {
					state := "pending"
					if m.Applied {
						state = "applied " + m.AppliedAt.Local().Format("2006-01-02 15:04")
					}
					if m.Drifted {
						state += " (changed since applied)"
					}
					rows[i] = []string{strconv.FormatInt(m.Version, 10), m.Description, state}
				}
				printTable(w, []string{"VERSION", "DESCRIPTION", "STATE"}, rows, nil, "migrations")
			})
		},
	}
}

func newMigrateUpCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(false)
			if err != nil {
				return err
			}
			applied, err := s.Ledger().Migrate(ctxOf(cmd), store.Migrations)
			if err != nil {
				return err
			}
			return e.emit(map[string][]int64{"applied": applied}, func(w io.Writer) {
				if len(applied) == 0 {
					fmt.Fprintln(w, "Schema is up to date.")
					return
				}
				e.done("Applied %d migration(s): %v", len(applied), applied)
			})
		},
	}
}

func newMigrateDownCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or every migration above --to",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(false)
			if err != nil {
				return err
			}
			ctx := ctxOf(cmd)
			ledger := s.Ledger()

			var target int64
			if cmd.Flags().Changed("to") {
				target, _ = cmd.Flags().GetInt64("to")
				if target < 0 {
					return userErrorf("--to must not be negative")
				}
			} else {
				versions, err := ledger.AppliedVersions(ctx)
				if err != nil {
					return err
				}
				if len(versions) > 1 {
					target = versions[len(versions)-2]
				}
			}

			done, err := ledger.Rollback(ctx, store.Migrations, &target)
			if err != nil {
				return err
			}
			return e.emit(map[string][]int64{"rolled_back": done}, func(w io.Writer) {
				if len(done) == 0 {
					fmt.Fprintln(w, "Nothing to roll back.")
					return
				}
				e.done("Rolled back %d migration(s): %v", len(done), done)
			})
		},
	}
	cmd.Flags().Int64("to", 0, "target version to keep (0 rolls back everything)")
	return cmd
}

func newMigrateResetCmd(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table and re-apply all migrations (destroys data)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return userErrorf("reset deletes all data; pass --force to confirm")
			}
			s, err := e.open(false)
			if err != nil {
				return err
			}
			applied, err := s.Ledger().Reset(ctxOf(cmd), store.Migrations)
			if err != nil {
				return err
			}
			return e.emit(map[string][]int64{"applied": applied}, func(io.Writer) {
				e.done("Database reset; applied %d migration(s).", len(applied))
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm data loss")
	return cmd
}
