package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prodmodel/internal/render"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

type propertyRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Owner    string `json:"owner"`
	Category string `json:"category,omitempty"`
	Override bool   `json:"override,omitempty"`
	Pending  bool   `json:"pending,omitempty"`
}

func (s *session) propertyRow(context *types.TypeNode, p *types.Property) propertyRow {
	row := propertyRow{ID: p.ID, Name: p.PropertyName(), Kind: p.Kind.String(), Owner: p.Owner}
	if c, ok := s.engine.EffectiveCategory(p, context); ok {
		row.Category = c.Name
	}
	side := types.SideConfigured
	if p.IsConfigurationSide() {
		side = types.SideConfiguration
	}
	if owner, ok := s.engine.Model().FindType(side, p.Owner); ok {
		row.Override = s.engine.Resolver().IsOverride(p, owner)
	}
	_, row.Pending = s.engine.PendingChange(context, p)
	return row
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func newPropsCmd(a *app) *cobra.Command {
	var kindName string
	var local bool
	cmd := &cobra.Command{
		Use:   "props <type>",
		Short: "List the effective properties of a configured type in display order",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind types.PropertyKind
			if kindName != "" {
				k, err := types.ParseKind(kindName)
				if err != nil {
					return err
				}
				kind = k
			}
			return a.withSession(func(s *session) error {
				context, err := s.engine.ConfiguredType(args[0])
				if err != nil {
					return err
				}
				m, err := s.engine.BuildMap(context, kind, !local)
				if err != nil {
					return err
				}
				rows := []propertyRow{}
				for _, p := range s.engine.Order(m.Values(), context) {
					rows = append(rows, s.propertyRow(context, p))
				}
				if a.flags.jsonMode {
					return a.printJSON(rows)
				}
				w := a.table()
				fmt.Fprintln(w, "#\tNAME\tKIND\tOWNER\tCATEGORY\tOVERRIDE\tPENDING")
				for i, r := range rows {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", i, r.Name, r.Kind, r.Owner, dash(r.Category), mark(r.Override), mark(r.Pending))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "only list properties of this kind")
	cmd.Flags().BoolVar(&local, "local", false, "ignore supertypes")
	return cmd
}

type categoryView struct {
	Name       string        `json:"name"`
	Position   string        `json:"position"`
	Owner      string        `json:"owner"`
	Properties []propertyRow `json:"properties"`
}

type showView struct {
	Type       string         `json:"type"`
	Categories []categoryView `json:"categories"`
	Unplaced   []propertyRow  `json:"unplaced,omitempty"`
}

func newShowCmd(a *app) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "show <type>",
		Short: "Show the categories of a configured type as left and right columns",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				context, err := s.engine.ConfiguredType(args[0])
				if err != nil {
					return err
				}
				groups, unplaced, err := s.engine.Assign(context)
				if err != nil {
					return err
				}
				unplaced = s.engine.Order(unplaced, context)
				if local {
					kept := groups[:0]
					for _, g := range groups {
						if g.Category.Owner == context.Name {
							kept = append(kept, g)
						}
					}
					groups = kept
				}

				if a.flags.jsonMode {
					v := showView{Type: context.Name, Categories: []categoryView{}}
					for _, g := range groups {
						cv := categoryView{
							Name:       g.Category.Name,
							Position:   g.Category.Position.String(),
							Owner:      g.Category.Owner,
							Properties: []propertyRow{},
						}
						for _, p := range g.Properties {
							cv.Properties = append(cv.Properties, s.propertyRow(context, p))
						}
						v.Categories = append(v.Categories, cv)
					}
					for _, p := range unplaced {
						v.Unplaced = append(v.Unplaced, s.propertyRow(context, p))
					}
					return a.printJSON(v)
				}

				pending := make(map[string]bool)
				for _, ch := range s.engine.PendingChanges(context) {
					pending[ch.PropertyID] = true
				}
				_, err = fmt.Fprint(a.out, render.NewPrinter(a.out).Render(render.View{
					Type:     context,
					Groups:   groups,
					Unplaced: unplaced,
					Pending:  pending,
				}))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "only show categories declared on the type itself")
	return cmd
}
