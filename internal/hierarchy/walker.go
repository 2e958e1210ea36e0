// Package hierarchy walks supertype chains. Walks never fail: a cycle or a
// supertype name that does not resolve ends the chain where it was found.
package hierarchy

import (
	"log/slog"

	"github.com/mesh-intelligence/prodmodel/internal/model"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Walker resolves supertype chains through a TypeFinder.
type Walker struct {
	finder types.TypeFinder
	logger *slog.Logger
}

// NewWalker creates a Walker. A nil logger uses slog.Default().
func NewWalker(finder types.TypeFinder, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{finder: finder, logger: logger}
}

// Ancestors returns t followed by its supertypes, leaf first. The walk
// stops before a type already visited and at the first supertype name that
// does not resolve.
func (w *Walker) Ancestors(t *types.TypeNode) []*types.TypeNode {
	if t == nil {
		return nil
	}
	visited := map[types.TypeID]bool{t.ID: true}
	chain := []*types.TypeNode{t}
	cur := t
	for cur.Supertype != "" {
		super, ok := model.FindSupertype(w.finder, cur)
		if !ok {
			w.logger.Debug("supertype does not resolve",
				"type", cur.Name, "side", cur.Side.String(), "supertype", cur.Supertype)
			break
		}
		if visited[super.ID] {
			w.logger.Debug("supertype cycle",
				"type", cur.Name, "side", cur.Side.String(), "supertype", super.Name)
			break
		}
		visited[super.ID] = true
		chain = append(chain, super)
		cur = super
	}
	return chain
}

// Chain returns the supertype chain of t root first, ending with t.
func (w *Walker) Chain(t *types.TypeNode) []*types.TypeNode {
	chain := w.Ancestors(t)
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Supertypes returns the supertype chain of t root first, excluding t.
func (w *Walker) Supertypes(t *types.TypeNode) []*types.TypeNode {
	chain := w.Chain(t)
	if len(chain) == 0 {
		return nil
	}
	return chain[:len(chain)-1]
}

// IsSubtypeOf reports whether super appears in the ancestor chain of t,
// t itself included.
func (w *Walker) IsSubtypeOf(t, super *types.TypeNode) bool {
	if t == nil || super == nil {
		return false
	}
	for _, a := range w.Ancestors(t) {
		if a.ID == super.ID {
			return true
		}
	}
	return false
}

// Scope returns the chain a query runs over: the whole chain root first
// when includeSupertypes is set, t alone otherwise.
func (w *Walker) Scope(t *types.TypeNode, includeSupertypes bool) []*types.TypeNode {
	if t == nil {
		return nil
	}
	if !includeSupertypes {
		return []*types.TypeNode{t}
	}
	return w.Chain(t)
}
