package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/mesh-intelligence/prodmodel/internal/engine"
	"github.com/mesh-intelligence/prodmodel/internal/paths"
	"github.com/mesh-intelligence/prodmodel/internal/sqlite"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// session is an attached backend with an engine over its model.
type session struct {
	backend *sqlite.Backend
	engine  *engine.Engine
}

// dataDir resolves the data directory: flag, config file, env, default.
func (a *app) dataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return dir, nil
}

// attach resolves the data directory and attaches a SQLite backend to it.
// The caller must Detach.
func (a *app) attach() (*sqlite.Backend, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, err
	}
	backend := sqlite.NewBackend(a.logger)
	if err := backend.Attach(a.settings.backendConfig(dir)); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// open attaches the backend and builds an engine over the stored model.
func (a *app) open() (*session, error) {
	backend, err := a.attach()
	if err != nil {
		return nil, err
	}
	m, err := backend.LoadModel()
	if err != nil {
		backend.Detach()
		return nil, fmt.Errorf("load model: %w", err)
	}
	logger := a.logger
	e := engine.New(m, backend,
		engine.WithLogger(logger),
		engine.WithDisplayOrder(a.settings.DisplayOrder),
		engine.WithListener(types.ListenerFunc(func(ev types.ContentChangeEvent) {
			logger.Debug("content changed", "side", ev.Side.String(), "type", ev.Type, "parts", ev.Parts)
		})),
	)
	return &session{backend: backend, engine: e}, nil
}

func (s *session) close() error {
	return s.backend.Detach()
}

// withSession runs fn against an open session and detaches afterwards.
func (a *app) withSession(fn func(s *session) error) (err error) {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = fmt.Errorf("detach backend: %w", cerr)
		}
	}()
	return fn(s)
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}
