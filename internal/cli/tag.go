package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
)

func newTagCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage task tags",
	}

	var tag model.Tag
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a tag",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			created, err := s.CreateTag(ctxOf(cmd), tag)
			if err != nil {
				return err
			}
			return e.emit(created, func(io.Writer) {
				e.done("Created tag #%s (%s).", created.Name, created.ID)
			})
		},
	}
	create.Flags().StringVar(&tag.Name, "name", "", "name (required, unique)")
	create.Flags().StringVar(&tag.Color, "color", "", "hex color")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			tags, err := s.GetTags(ctxOf(cmd))
			if err != nil {
				return err
			}
			return e.emit(tags, func(w io.Writer) {
				rows := make([][]string, len(tags))
				for i, t := range tags {
					rows[i] = []string{shortID(t.ID), "#" + t.Name, t.Color}
				}
				printTable(w, []string{"ID", "NAME", "COLOR"}, rows, nil, "tags")
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tag and remove it from every task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			if err := s.DeleteTag(ctxOf(cmd), args[0]); err != nil {
				return err
			}
			return e.emit(map[string]string{"deleted": args[0]}, func(io.Writer) {
				e.done("Deleted tag %s.", shortID(args[0]))
			})
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}
