package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/theme"
)

func newStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show counts of active, completed, overdue and archived items",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			st, err := s.Stats(ctxOf(cmd))
			if err != nil {
				return err
			}
			return e.emit(st, func(w io.Writer) {
				rows := make([][]string, 0, len(model.Kinds)+3)
				for _, k := range model.Kinds {
					rows = append(rows, []string{"Active " + pluralLabel(k), strconv.Itoa(st.Active[k])})
				}
				rows = append(rows,
					[]string{"Completed tasks", strconv.Itoa(st.CompletedTasks)},
					[]string{"Overdue tasks", strconv.Itoa(st.OverdueTasks)},
					[]string{"Archived items", strconv.Itoa(st.Archived)},
				)
				printTable(w, []string{"", "COUNT"}, rows, nil, "counters")
			})
		},
	}
}

func newCleanupCmd(e *env) *cobra.Command {
	var days int
	var vacuum bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Permanently delete items archived long ago",
		Long: `Permanently delete items that were archived more than --older-than-days
days ago. Items that still have children are kept.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return userErrorf("--older-than-days must not be negative")
			}
			s, err := e.db()
			if err != nil {
				return err
			}
			res, err := s.Cleanup(ctxOf(cmd), days, vacuum)
			if err != nil {
				return err
			}
			return e.emit(res, func(w io.Writer) {
				if res.Total() == 0 {
					fmt.Fprintf(w, "Nothing archived before %s.\n", res.Cutoff.Local().Format(dateLayout))
				} else {
					for _, k := range model.Kinds {
						if n := res.Deleted[k]; n > 0 {
							fmt.Fprintf(w, "  %-12s %d\n", pluralLabel(k), n)
						}
					}
					e.done("Deleted %d archived item(s).", res.Total())
				}
				if res.Vacuumed {
					fmt.Fprintln(w, "Database compacted.")
				}
			})
		},
	}
	cmd.Flags().IntVar(&days, "older-than-days", 30, "minimum age of the archive mark in days")
	cmd.Flags().BoolVar(&vacuum, "vacuum", false, "compact the database file afterwards")
	return cmd
}

func newHealthCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the database connection and settings",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			report, herr := s.Health(ctxOf(cmd))
			if report == nil {
				return herr
			}
			if err := e.emit(report, func(w io.Writer) {
				state := theme.SuccessStyle.Render("ok")
				if herr != nil {
					state = theme.ErrorStyle.Render("failing")
				}
				fmt.Fprintln(w, titleStyle.Render("Database")+" "+state)
				printPairs(w, [][2]string{
					{"Latency", report.Latency.String()},
					{"Journal mode", report.JournalMode},
					{"Foreign keys", strconv.FormatBool(report.ForeignKeys)},
					{"Synchronous", strconv.Itoa(report.Synchronous)},
					{"Busy timeout", fmt.Sprintf("%dms", report.BusyTimeoutMS)},
					{"Schema version", strconv.FormatInt(report.LatestMigration, 10)},
					{"Error", report.Error},
				})
			}); err != nil {
				return err
			}
			return herr
		},
	}
}
