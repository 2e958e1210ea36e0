package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

func parseIndices(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, arg := range args {
		i, err := strconv.Atoi(arg)
		if err != nil {
			return nil, usage("index %q is not a number", arg)
		}
		out = append(out, i)
	}
	return out, nil
}

func newMovePropsCmd(a *app) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "move-props <type> <category> <index>...",
		Short: "Move properties of a category one step up or down",
		Long: "Indices are positions within the category as listed by show. Properties\n" +
			"must be declared on the type itself; a selection already at the edge stays.",
		Args: checkArgs(cobra.MinimumNArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(args[2:])
			if err != nil {
				return err
			}
			return a.withSession(func(s *session) error {
				context, err := s.engine.ConfiguredType(args[0])
				if err != nil {
					return err
				}
				cat, ok := s.engine.FindCategory(context, args[1])
				if !ok {
					return fmt.Errorf("%w: %q", types.ErrCategoryNotFound, args[1])
				}
				moved, err := s.engine.MoveCategoryProperties(context, cat, indices, !down)
				if err != nil {
					return err
				}
				if err := s.engine.Serialize(context); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return a.printJSON(map[string][]int{"indices": moved})
				}
				_, err = fmt.Fprintln(a.out, "new indices:", moved)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "move down instead of up")
	return cmd
}

func newMoveCategoriesCmd(a *app) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "move-categories <type> <category>...",
		Short: "Move categories one step up or down within their column",
		Args:  checkArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				context, err := s.engine.ConfiguredType(args[0])
				if err != nil {
					return err
				}
				var cats []*types.Category
				for _, name := range args[1:] {
					c, ok := s.engine.FindCategory(context, name)
					if !ok {
						return fmt.Errorf("%w: %q", types.ErrCategoryNotFound, name)
					}
					cats = append(cats, c)
				}
				moved, err := s.engine.MoveCategories(context, cats, !down)
				if err != nil {
					return err
				}
				if moved {
					if err := s.engine.Serialize(context); err != nil {
						return err
					}
				}
				if a.flags.jsonMode {
					return a.printJSON(map[string]bool{"moved": moved})
				}
				if !moved {
					_, err = fmt.Fprintln(a.out, "nothing moved")
					return err
				}
				_, err = fmt.Fprintln(a.out, "categories moved")
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "move down instead of up")
	return cmd
}

func newSetCategoryCmd(a *app) *cobra.Command {
	var position int
	var kindName string
	cmd := &cobra.Command{
		Use:   "set-category <type> <property> <category>",
		Short: "Assign a property to a category",
		Long: "A property declared on the configured side changes at once. A property\n" +
			"of the configuration type is changed on save; until then the change is\n" +
			"pending. An empty category name selects the default category.",
		Args: checkArgs(cobra.ExactArgs(3)),
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
				var p *types.Property
				var ok bool
				if kind != 0 {
					p, ok, err = s.engine.FindByKindAndName(context, kind, args[1])
				} else {
					p, ok, err = s.engine.FindByName(context, args[1])
				}
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %q in %q", types.ErrPropertyNotFound, args[1], context.Name)
				}
				if err := s.engine.ChangeCategoryAndDeferPolicyChange(context, p, args[2], position); err != nil {
					return err
				}
				if err := s.engine.Serialize(context); err != nil {
					return err
				}
				_, pending := s.engine.PendingChange(context, p)
				if a.flags.jsonMode {
					return a.printJSON(s.propertyRow(context, p))
				}
				if pending {
					_, err = fmt.Fprintf(a.out, "%s: category change pending until save\n", p.PropertyName())
					return err
				}
				_, err = fmt.Fprintf(a.out, "%s: category set\n", p.PropertyName())
				return err
			})
		},
	}
	cmd.Flags().IntVar(&position, "position", -1, "position within the category (default: append)")
	cmd.Flags().StringVar(&kindName, "kind", "", "kind of the property when names are shared across kinds")
	return cmd
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <type>",
		Short: "Commit the pending category changes of a configured type",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				context, err := s.engine.ConfiguredType(args[0])
				if err != nil {
					return err
				}
				n := len(s.engine.PendingChanges(context))
				if err := s.engine.Save(context); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return a.printJSON(map[string]int{"resolved": n})
				}
				_, err = fmt.Fprintf(a.out, "saved %s, %d pending changes resolved\n", context.Name, n)
				return err
			})
		},
	}
}

func newDiscardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <type>",
		Short: "Drop the pending category changes of a configured type",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				context, err := s.engine.ConfiguredType(args[0])
				if err != nil {
					return err
				}
				n, err := s.engine.Discard(context)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return a.printJSON(map[string]int{"discarded": n})
				}
				_, err = fmt.Fprintf(a.out, "discarded %d pending changes\n", n)
				return err
			})
		},
	}
}
