package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prodmodel/internal/validate"
)

var errValidationFailed = usageError{errors.New("validation reported errors")}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <type>",
		Short: "Check the categorization of a configured type",
		Long:  "Validate reports hierarchy and category problems of a configured type. It exits 1 if any finding is an error.",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				context, err := s.engine.ConfiguredType(args[0])
				if err != nil {
					return err
				}
				msgs, err := validate.New(s.engine).Validate(context)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					if msgs == nil {
						msgs = validate.Messages{}
					}
					if err := a.printJSON(msgs); err != nil {
						return err
					}
				} else {
					if len(msgs) == 0 {
						fmt.Fprintf(a.out, "%s: no findings\n", context.Name)
					}
					for _, m := range msgs {
						fmt.Fprintf(a.out, "%-7s %s: %s", m.Severity, m.Code, m.Text)
						if len(m.Objects) > 0 {
							fmt.Fprintf(a.out, " [%s]", strings.Join(m.Objects, ", "))
						}
						fmt.Fprintln(a.out)
					}
				}
				if msgs.HasErrors() {
					return errValidationFailed
				}
				return nil
			})
		},
	}
}
