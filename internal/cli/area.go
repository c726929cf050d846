package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
)

func newAreaCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "area",
		Aliases: []string{"areas", "life-area"},
		Short:   "Manage life areas",
	}
	cmd.AddCommand(
		newAreaCreateCmd(e),
		newAreaListCmd(e),
		newAreaGetCmd(e),
		newAreaUpdateCmd(e),
		newAreaReorderCmd(e),
		newArchiveCmd(e, model.KindLifeArea),
		newRestoreCmd(e, model.KindLifeArea),
		newDeleteCmd(e, model.KindLifeArea),
	)
	return cmd
}

func newAreaCreateCmd(e *env) *cobra.Command {
	var area model.LifeArea
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a life area",
		Example: `  evorbrain area create --name Health --color "#22aa66"
  evorbrain area create --name Work --icon 💼 --json`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			created, err := s.CreateLifeArea(ctxOf(cmd), area)
			if err != nil {
				return err
			}
			return e.emit(created, func(w io.Writer) { printArea(w, created) })
		},
	}
	cmd.Flags().StringVar(&area.Name, "name", "", "name (required)")
	cmd.Flags().StringVar(&area.Description, "description", "", "description")
	cmd.Flags().StringVar(&area.Color, "color", "", "hex color such as #5B9BD5")
	cmd.Flags().StringVar(&area.Icon, "icon", "", "icon")
	return cmd
}

func newAreaListCmd(e *env) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List life areas in display order",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			areas, err := s.GetLifeAreas(ctxOf(cmd), archived || e.cfg.Display.ShowArchived)
			if err != nil {
				return err
			}
			return e.emit(areas, func(w io.Writer) {
				rows := make([][]string, len(areas))
				dim := make([]bool, len(areas))
				for i, a := range areas {
					rows[i] = []string{shortID(a.ID), strconv.Itoa(a.SortOrder), a.Icon + " " + truncate(a.Name, 40), a.Color, archivedMark(a.ArchivedAt)}
					dim[i] = a.ArchivedAt != nil
				}
				printTable(w, []string{"ID", "#", "NAME", "COLOR", ""}, rows, dim, "life areas")
			})
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived life areas")
	return cmd
}

func newAreaGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a life area",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			area, err := s.GetLifeArea(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return e.emit(area, func(w io.Writer) { printArea(w, area) })
		},
	}
}

func newAreaUpdateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a life area",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			upd := model.LifeAreaUpdate{
				Name:        stringFlag(fs, "name"),
				Description: stringFlag(fs, "description"),
				Color:       stringFlag(fs, "color"),
				Icon:        stringFlag(fs, "icon"),
			}
			s, err := e.db()
			if err != nil {
				return err
			}
			area, err := s.UpdateLifeArea(ctxOf(cmd), args[0], upd)
			if err != nil {
				return err
			}
			return e.emit(area, func(w io.Writer) { printArea(w, area) })
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("color", "", "new hex color")
	cmd.Flags().String("icon", "", "new icon")
	return cmd
}

func newAreaReorderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the display order of life areas",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			if err := s.ReorderLifeAreas(ctxOf(cmd), args); err != nil {
				return err
			}
			return e.emit(map[string][]string{"order": args}, func(io.Writer) {
				e.done("Reordered %d life areas.", len(args))
			})
		},
	}
}

func printArea(w io.Writer, a *model.LifeArea) {
	printFields(w, a.Name, model.KindLifeArea, [][2]string{
		{"ID", a.ID},
		{"Description", a.Description},
		{"Color", a.Color},
		{"Icon", a.Icon},
		{"Order", fmt.Sprint(a.SortOrder)},
		{"Created", a.CreatedAt.Local().Format("2006-01-02 15:04")},
		{"Archived", archivedMark(a.ArchivedAt)},
	})
}
