package propmap

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/prodmodel/internal/hierarchy"
	"github.com/mesh-intelligence/prodmodel/internal/model"
	"github.com/mesh-intelligence/prodmodel/internal/override"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Builder produces property maps for configured types.
type Builder struct {
	finder types.TypeFinder
	walker *hierarchy.Walker
	logger *slog.Logger
}

// NewBuilder creates a Builder. A nil logger uses slog.Default().
func NewBuilder(finder types.TypeFinder, walker *hierarchy.Walker, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{finder: finder, walker: walker, logger: logger}
}

// Level pairs one configured type of a chain with the configuration type it
// resolves to. Configuration is nil when the level configures nothing or
// the link does not resolve.
type Level struct {
	Configured    *types.TypeNode
	Configuration *types.TypeNode
}

// Levels returns the configured-type scope of t, root first, each with its
// resolved configuration type.
func (b *Builder) Levels(t *types.TypeNode, includeSupertypes bool) []Level {
	scope := b.walker.Scope(t, includeSupertypes)
	levels := make([]Level, len(scope))
	for i, ct := range scope {
		levels[i].Configured = ct
		cfg, ok := model.FindConfigurationType(b.finder, ct)
		if !ok {
			if ct.ConfiguresCounterpart {
				b.logger.Debug("configuration type does not resolve",
					"type", ct.Name, "configuration_type", ct.Counterpart)
			}
			continue
		}
		levels[i].Configuration = cfg
	}
	return levels
}

// Build returns the properties of t keyed by kind and logical name. A zero
// kind returns every kind. With includeSupertypes the map spans t's whole
// configured chain and the configuration types those levels configure;
// otherwise only t and its own configuration type contribute.
//
// Supertype declarations are inserted first, so a key keeps the position of
// its first declaration while its value is the declaration in effect for t.
// Keys whose effective declaration is not relevant are dropped.
// Returns ErrWrongSide if t is not a configured type.
func (b *Builder) Build(t *types.TypeNode, kind types.PropertyKind, includeSupertypes bool) (*Map, error) {
	if t == nil {
		return nil, types.ErrTypeNotFound
	}
	if t.Side != types.SideConfigured {
		return nil, fmt.Errorf("%w: %q", types.ErrWrongSide, t.Name)
	}
	if kind != 0 && !kind.Valid() {
		return nil, types.ErrInvalidKind
	}

	levels := b.Levels(t, includeSupertypes)

	configuredScope := make([]*types.TypeNode, len(levels))
	for i, l := range levels {
		configuredScope[len(levels)-1-i] = l.Configured
	}
	configuredWinners := override.Winners(configuredScope)
	configurationWinners := b.configurationWinners(levels, includeSupertypes)

	m := newMap()
	insert := func(p *types.Property, winners map[override.Key]*types.Property) {
		k := override.KeyOf(p)
		w, ok := winners[k]
		if !ok {
			w = p
		}
		m.set(k, w)
	}

	seen := make(map[types.TypeID]bool)
	for _, l := range levels {
		for _, p := range l.Configured.Properties {
			if p.Kind.DeclaredOn() != types.SideConfigured {
				continue
			}
			insert(p, configuredWinners)
		}
		cfg := l.Configuration
		if cfg == nil || seen[cfg.ID] {
			continue
		}
		seen[cfg.ID] = true
		for _, p := range cfg.Properties {
			if p.Kind.DeclaredOn() != types.SideConfiguration {
				continue
			}
			insert(p, configurationWinners)
		}
	}

	m.retain(func(p *types.Property) bool { return p.IsRelevant() })
	if kind != 0 {
		return m.OfKind(kind), nil
	}
	return m, nil
}

// configurationWinners resolves shadowing on the configuration side. With
// supertypes it uses the full chain of the configuration type closest to
// the context type; otherwise only the context type's own configuration
// type.
func (b *Builder) configurationWinners(levels []Level, includeSupertypes bool) map[override.Key]*types.Property {
	var closest *types.TypeNode
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].Configuration != nil {
			closest = levels[i].Configuration
			break
		}
	}
	if closest == nil {
		return nil
	}
	if !includeSupertypes {
		return override.Winners([]*types.TypeNode{closest})
	}
	return override.Winners(b.walker.Ancestors(closest))
}

// OwningConfiguredType returns the configured type through which p
// surfaces in context's chain: the declaring type for configured-side
// kinds, and the level closest to context configuring p's declaring type
// for configuration-side kinds.
func (b *Builder) OwningConfiguredType(p *types.Property, context *types.TypeNode) (*types.TypeNode, bool) {
	if !p.IsConfigurationSide() {
		return b.finder.FindType(types.SideConfigured, p.Owner)
	}
	levels := b.Levels(context, true)
	for i := len(levels) - 1; i >= 0; i-- {
		l := levels[i]
		if l.Configuration != nil && l.Configuration.Name == p.Owner {
			return l.Configured, true
		}
	}
	// Declared on a configuration supertype that no level configures.
	for i := len(levels) - 1; i >= 0; i-- {
		l := levels[i]
		if l.Configuration == nil {
			continue
		}
		for _, anc := range b.walker.Ancestors(l.Configuration) {
			if anc.Name == p.Owner {
				return l.Configured, true
			}
		}
	}
	return nil, false
}
