package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/evorbrain/internal/model"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration file",
	}
	cmd.AddCommand(newConfigShowCmd(e), newConfigInitCmd(e))
	return cmd
}

func newConfigShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := struct {
				Path    string           `json:"path"`
				DataDir string           `json:"data_dir"`
				Config  *model.AppConfig `json:"config"`
			}{e.cfgPath, e.dataDir, e.cfg}

			return e.emit(out, func(w io.Writer) {
				c := e.cfg
				fmt.Fprintln(w, titleStyle.Render("Configuration"))
				printPairs(w, [][2]string{
					{"File", e.cfgPath},
					{"Data dir", e.dataDir},
					{"Database", c.Database.File},
					{"Busy timeout", fmt.Sprintf("%dms", c.Database.BusyTimeoutMS)},
					{"Synchronous", c.Database.Synchronous},
					{"Log", c.Log.Level + " " + c.Log.Format},
					{"Log file", c.Log.File},
					{"Strict checksums", strconv.FormatBool(c.Migrations.StrictChecksums)},
					{"Atomic rollback", strconv.FormatBool(c.Migrations.AtomicRollback)},
					{"Show archived", strconv.FormatBool(c.Display.ShowArchived)},
				})
			})
		},
	}
}

func newConfigInitCmd(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := os.Stat(e.cfgPath)
			switch {
			case err == nil && !force:
				return userErrorf("%s already exists (use --force to overwrite)", e.cfgPath)
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return fmt.Errorf("checking %s: %w", e.cfgPath, err)
			}

			if err := model.SaveConfig(e.cfgPath, model.DefaultAppConfig()); err != nil {
				return err
			}
			e.logger.Info("config written", "path", e.cfgPath)
			e.done("Wrote %s.", e.cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
