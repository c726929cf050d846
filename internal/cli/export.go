package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(e *env) *cobra.Command {
	var (
		archived bool
		output   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every area, goal, project, task, note and tag as JSON",
		Long: `Dump the whole database as one JSON document. Archived items are
left out unless --archived is given. The document goes to stdout, or to
the file named by --output.`,
		Example: `  evorbrain export > backup.json
  evorbrain export --archived --output backup.json`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.db()
			if err != nil {
				return err
			}
			ex, err := s.Export(ctxOf(cmd), archived)
			if err != nil {
				return err
			}

			if output == "" {
				return writeJSON(e.stdout, ex)
			}
			f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
			if err != nil {
				return userErrorf("opening %s: %v", output, err)
			}
			if err := writeJSON(f, ex); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}

			e.logger.Info("exported", "path", output, "items", ex.ItemCount)
			return e.emit(map[string]any{"path": output, "item_count": ex.ItemCount}, func(io.Writer) {
				e.done("Exported %d item(s) to %s.", ex.ItemCount, output)
			})
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived items")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
