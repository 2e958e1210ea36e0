package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize prodmodel configuration and storage",
		Long:  "Create the configuration and data directories, write a default config.yaml if none exists, then initialize the storage backend.",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.dataDir()
			if err != nil {
				return err
			}
			var configured string
			if a.flags.dataDir != "" {
				configured = dataDir
			}
			created, err := writeConfigIfMissing(a.settings.ConfigDir, configured)
			if err != nil {
				return err
			}
			backend, err := a.attach()
			if err != nil {
				return err
			}
			if err := backend.Detach(); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return a.printJSON(map[string]any{
					"config_dir":     a.settings.ConfigDir,
					"data_dir":       dataDir,
					"config_created": created,
				})
			}
			fmt.Fprintln(a.out, "prodmodel initialized")
			fmt.Fprintln(a.out, "  config:", a.settings.ConfigDir)
			fmt.Fprintln(a.out, "  data:  ", dataDir)
			return nil
		},
	}
}
