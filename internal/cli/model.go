package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prodmodel/internal/modelfile"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

func newImportCmd(a *app) *cobra.Command {
	var readOnly bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import types from a YAML, CUE or CBOR model document",
		Long: "Import reads a model document and stores every type in it, replacing\n" +
			"stored types of the same side and name. The format follows the file\n" +
			"extension: .yaml, .yml, .cue or .cbor.",
		Args: checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := modelfile.ReadFile(args[0])
			if err != nil {
				return err
			}
			m, err := modelfile.ToModel(doc)
			if err != nil {
				return err
			}

			backend, err := a.attach()
			if err != nil {
				return err
			}
			defer backend.Detach()

			imported := m.Types(0)
			for _, t := range imported {
				if err := backend.Persist(t); err != nil {
					return fmt.Errorf("store %s type %q: %w", t.Side, t.Name, err)
				}
				if readOnly {
					if err := backend.SetReadOnly(t.Side, t.Name, true); err != nil {
						return err
					}
				}
			}
			a.logger.Info("model imported", "file", args[0], "types", len(imported))
			if a.flags.jsonMode {
				return a.printJSON(map[string]int{"imported": len(imported)})
			}
			_, err = fmt.Fprintf(a.out, "imported %d types\n", len(imported))
			return err
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "mark the imported types read-only")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored model as a YAML or CBOR document",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportFormat(format, out)
			if err != nil {
				return err
			}
			return a.withSession(func(s *session) error {
				data, err := modelfile.Encode(modelfile.FromModel(s.engine.Model()), f)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = a.out.Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "output format: yaml or cbor (default: from --out, else yaml)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func exportFormat(flag, out string) (modelfile.Format, error) {
	switch {
	case flag != "":
		return modelfile.ParseFormat(flag)
	case out != "":
		return modelfile.FormatFromPath(out)
	default:
		return modelfile.FormatYAML, nil
	}
}

type typeRow struct {
	Name        string `json:"name"`
	Side        string `json:"side"`
	Supertype   string `json:"supertype,omitempty"`
	Counterpart string `json:"counterpart,omitempty"`
	Properties  int    `json:"properties"`
	Pending     int    `json:"pending,omitempty"`
	Mutable     bool   `json:"mutable"`
}

func newTypesCmd(a *app) *cobra.Command {
	var side string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List stored types",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter types.Side
			if side != "" {
				s, err := types.ParseSide(side)
				if err != nil {
					return err
				}
				filter = s
			}
			return a.withSession(func(s *session) error {
				var rows []typeRow
				for _, t := range s.engine.Model().Types(filter) {
					rows = append(rows, typeRow{
						Name:        t.Name,
						Side:        t.Side.String(),
						Supertype:   t.Supertype,
						Counterpart: t.Counterpart,
						Properties:  len(t.Properties),
						Pending:     len(t.PendingChanges),
						Mutable:     s.backend.IsMutable(t),
					})
				}
				if a.flags.jsonMode {
					return a.printJSON(rows)
				}
				w := a.table()
				fmt.Fprintln(w, "NAME\tSIDE\tSUPERTYPE\tCOUNTERPART\tPROPERTIES\tPENDING\tMUTABLE")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
						r.Name, r.Side, dash(r.Supertype), dash(r.Counterpart), r.Properties, r.Pending, r.Mutable)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&side, "side", "", "only list types of this side: configured or configuration")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
