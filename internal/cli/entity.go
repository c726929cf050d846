package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nhle/evorbrain/internal/model"
)

// exactArgs is cobra.ExactArgs reporting a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return userErrorf("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return userErrorf("%s expects at least %d argument(s)", cmd.CommandPath(), n)
		}
		return nil
	}
}

// parseDate reads a YYYY-MM-DD date in the local time zone.
func parseDate(flag, s string) (*time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, userErrorf("invalid --%s %q: want YYYY-MM-DD", flag, s)
	}
	return &t, nil
}

// dateFlag returns the parsed value of a date flag, or nil when unset.
func dateFlag(fs *pflag.FlagSet, name string) (*time.Time, error) {
	if !fs.Changed(name) {
		return nil, nil
	}
	s, _ := fs.GetString(name)
	return parseDate(name, s)
}

// stringFlag returns a pointer to the flag value when it was set.
func stringFlag(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	s, _ := fs.GetString(name)
	return &s
}

func intFlag(fs *pflag.FlagSet, name string) *int {
	if !fs.Changed(name) {
		return nil
	}
	n, _ := fs.GetInt(name)
	return &n
}

func priorityFlag(fs *pflag.FlagSet) (*model.Priority, error) {
	s := stringFlag(fs, "priority")
	if s == nil {
		return nil, nil
	}
	p, err := model.ParsePriority(*s)
	if err != nil {
		return nil, usageError{err}
	}
	return &p, nil
}

// newArchiveCmd archives entities of kind along with their descendants.
// Several IDs are archived in one transaction.
func newArchiveCmd(e *env, kind model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>...",
		Short: fmt.Sprintf("Archive a %s and everything beneath it", kind.Label()),
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			if len(args) > 1 {
				res, err := s.ArchiveBatch(ctxOf(cmd), kind, args)
				if err != nil {
					return err
				}
				return e.emit(res, func(w io.Writer) { printArchived(w, res.Archived) })
			}
			res, err := s.ArchiveCascade(ctxOf(cmd), kind, args[0])
			if err != nil {
				return err
			}
			return e.emit(res, func(w io.Writer) { printCascade(w, res) })
		},
	}
}

// newRestoreCmd clears the archive mark on one entity. Descendants stay
// archived.
func newRestoreCmd(e *env, kind model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: fmt.Sprintf("Restore an archived %s (descendants stay archived)", kind.Label()),
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			if err := s.Restore(ctxOf(cmd), kind, args[0]); err != nil {
				return err
			}
			return e.emit(map[string]string{"restored": args[0], "kind": string(kind)}, func(io.Writer) {
				e.done("Restored %s %s.", kind.Label(), shortID(args[0]))
			})
		},
	}
}

// newDeleteCmd permanently removes entities that have no children. With
// several IDs either all of them go or none do.
func newDeleteCmd(e *env, kind model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: fmt.Sprintf("Permanently delete a %s with no children", kind.Label()),
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			if len(args) > 1 {
				res, err := s.DeleteBatch(ctxOf(cmd), kind, args)
				if err != nil {
					return err
				}
				return e.emit(res, func(io.Writer) {
					e.done("Deleted %d %s.", res.Affected, pluralLabel(kind))
				})
			}
			if err := s.HardDelete(ctxOf(cmd), kind, args[0]); err != nil {
				return err
			}
			return e.emit(map[string]string{"deleted": args[0], "kind": string(kind)}, func(io.Writer) {
				e.done("Deleted %s %s.", kind.Label(), shortID(args[0]))
			})
		},
	}
}

func archivedMark(t *time.Time) string {
	if t == nil {
		return ""
	}
	return "archived " + fmtDate(t)
}
