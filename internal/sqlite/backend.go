// Package sqlite persists types with JSONL files as the source of truth and
// SQLite as the query engine. On Attach the JSONL files are loaded into a
// fresh database; every write goes to SQLite in a transaction and then to
// the JSONL files, either at once or when the backend is detached.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

const dbFile = "prodmodel.db"

// Backend implements types.Store.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger

	syncStrategy  string
	pendingWrites []pendingWrite
	writeMu       sync.Mutex
}

var _ types.Store = (*Backend)(nil)

// pendingWrite is a JSONL rewrite deferred by the on_close strategy.
type pendingWrite struct {
	file    string
	persist func() error
}

// NewBackend creates a detached backend. A nil logger uses slog.Default().
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

// Attach opens the backend on config.DataDir, creating the directory and
// empty JSONL files as needed, and loads the JSONL files into SQLite.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if config.DataDir == "" {
		config.DataDir = "."
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is rebuilt from JSONL on every attach.
	dbPath := filepath.Join(config.DataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string(nil), schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFiles(config.DataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, config.DataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.syncStrategy = config.GetSyncStrategy()
	b.pendingWrites = nil
	b.attached = true
	b.logger.Debug("backend attached", "data_dir", config.DataDir, "sync_strategy", b.syncStrategy)
	return nil
}

// Detach flushes queued JSONL writes and closes the database. Detach is
// idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.flushPendingWrites(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// queueWrite records a JSONL rewrite for the on_close strategy. A queued
// rewrite of the same file replaces the earlier one.
func (b *Backend) queueWrite(file string, persist func() error) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for i, pw := range b.pendingWrites {
		if pw.file == file {
			b.pendingWrites[i].persist = persist
			return
		}
	}
	b.pendingWrites = append(b.pendingWrites, pendingWrite{file: file, persist: persist})
}

func (b *Backend) flushPendingWrites() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	for _, pw := range b.pendingWrites {
		if err := pw.persist(); err != nil {
			return fmt.Errorf("flush %s: %w", pw.file, err)
		}
	}
	b.pendingWrites = nil
	return nil
}
