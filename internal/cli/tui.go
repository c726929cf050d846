package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/app"
)

func newTUICmd(e *env) *cobra.Command {
	var showArchived bool
	cmd := &cobra.Command{
		Use:     "tui",
		Aliases: []string{"ui"},
		Short:   "Browse the hierarchy in an interactive terminal UI",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("archived") {
				showArchived = e.cfg.Display.ShowArchived
			}

			e.logger.Info("starting tui", "show_archived", showArchived)
			p := tea.NewProgram(app.New(s, e.logger, showArchived),
				tea.WithAltScreen(),
				tea.WithContext(ctxOf(cmd)),
				tea.WithOutput(e.stdout),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&showArchived, "archived", false, "list archived items from the start")
	return cmd
}
