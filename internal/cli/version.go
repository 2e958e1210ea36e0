package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the prodmodel version",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return a.printJSON(map[string]string{"version": Version})
			}
			_, err := fmt.Fprintln(a.out, "prodmodel", Version)
			return err
		},
	}
}
