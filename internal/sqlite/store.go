package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/prodmodel/internal/model"
	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// Persist replaces the stored form of t: its type row, the properties it
// declares and, for configured types, its categories, property references
// and pending changes. The stored read-only flag is kept. A property
// without an id is given a UUID v7.
// Returns ErrReadOnly if t is not mutable.
func (b *Backend) Persist(t *types.TypeNode) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrBackendDetached
	}
	if t == nil || t.Name == "" {
		return types.ErrInvalidName
	}
	if !b.isMutableLocked(t) {
		return fmt.Errorf("%w: %s type %q", types.ErrReadOnly, t.Side, t.Name)
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeType(tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %q: %w", t.Name, err)
	}
	return b.persistJSONL()
}

func writeType(tx *sql.Tx, t *types.TypeNode) error {
	side := t.Side.String()
	_, err := tx.Exec(`INSERT INTO types (side, name, supertype, counterpart, configures_counterpart)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(side, name) DO UPDATE SET
			supertype = excluded.supertype,
			counterpart = excluded.counterpart,
			configures_counterpart = excluded.configures_counterpart`,
		side, t.Name, t.Supertype, t.Counterpart, boolInt(t.ConfiguresCounterpart))
	if err != nil {
		return fmt.Errorf("writing type %q: %w", t.Name, err)
	}

	if _, err := tx.Exec("DELETE FROM properties WHERE owner_side = ? AND owner = ?", side, t.Name); err != nil {
		return fmt.Errorf("clearing properties of %q: %w", t.Name, err)
	}
	for i, p := range t.Properties {
		if p.ID == "" {
			newID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generating UUID v7: %w", err)
			}
			p.ID = newID.String()
		}
		payload, err := encodePayload(p)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO properties (property_id, owner_side, owner, ordinal, kind, name,
			overwrite, relevant, category, category_position, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, side, t.Name, i, p.Kind.String(), p.Name,
			boolInt(p.Overwrite), boolInt(p.Relevant), p.Category, p.CategoryPosition, payload)
		if err != nil {
			return fmt.Errorf("writing property %q of %q: %w", p.ID, t.Name, err)
		}
	}

	if !t.IsConfigured() {
		return nil
	}
	for _, table := range []string{"categories", "property_refs", "pending_changes"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE owner = ?", t.Name); err != nil {
			return fmt.Errorf("clearing %s of %q: %w", table, t.Name, err)
		}
	}
	for i, c := range t.Categories {
		_, err := tx.Exec(`INSERT INTO categories (owner, ordinal, name, position,
			default_configuration_attributes, default_configured_attributes,
			default_formula_signatures, default_table_usages, default_validation_rules)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Name, i, c.Name, c.Position.String(),
			boolInt(c.DefaultForConfigurationAttributes), boolInt(c.DefaultForConfiguredAttributes),
			boolInt(c.DefaultForFormulaSignatures), boolInt(c.DefaultForTableUsages),
			boolInt(c.DefaultForValidationRules))
		if err != nil {
			return fmt.Errorf("writing category %q of %q: %w", c.Name, t.Name, err)
		}
	}
	for i, id := range t.PropertyRefs {
		if _, err := tx.Exec("INSERT INTO property_refs (owner, ordinal, property_id) VALUES (?, ?, ?)",
			t.Name, i, id); err != nil {
			return fmt.Errorf("writing property reference of %q: %w", t.Name, err)
		}
	}
	for i, pc := range t.PendingChanges {
		if _, err := tx.Exec(`INSERT INTO pending_changes (owner, ordinal, property_id, category, position)
			VALUES (?, ?, ?, ?, ?)`, t.Name, i, pc.PropertyID, pc.Category, pc.Position); err != nil {
			return fmt.Errorf("writing pending change of %q: %w", t.Name, err)
		}
	}
	return nil
}

// Load reads the stored form of one type.
// Returns ErrNotFound if the type was never persisted.
func (b *Backend) Load(side types.Side, name string) (*types.TypeNode, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	row := b.db.QueryRow(`SELECT side, name, COALESCE(supertype, ''), COALESCE(counterpart, ''),
		COALESCE(configures_counterpart, 0) FROM types WHERE side = ? AND name = ?`, side.String(), name)
	t, err := scanType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s type %q", types.ErrNotFound, side, name)
	}
	if err != nil {
		return nil, err
	}
	if err := b.hydrate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadModel reads every stored type into a new model.
func (b *Backend) LoadModel() (*model.Model, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	rows, err := b.db.Query(`SELECT side, name, COALESCE(supertype, ''), COALESCE(counterpart, ''),
		COALESCE(configures_counterpart, 0) FROM types ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying types: %w", err)
	}
	var nodes []*types.TypeNode
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		nodes = append(nodes, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating types: %w", err)
	}

	m := model.New()
	for _, t := range nodes {
		if err := b.hydrate(t); err != nil {
			return nil, err
		}
		if _, err := m.Add(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// IsMutable reports whether t may be persisted: the backend is not
// read-only and t's stored read-only flag is not set. Types that were
// never stored are mutable.
func (b *Backend) IsMutable(t *types.TypeNode) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isMutableLocked(t)
}

func (b *Backend) isMutableLocked(t *types.TypeNode) bool {
	if !b.attached || b.config.ReadOnly || t == nil {
		return false
	}
	var ro int
	err := b.db.QueryRow("SELECT COALESCE(read_only, 0) FROM types WHERE side = ? AND name = ?",
		t.Side.String(), t.Name).Scan(&ro)
	if err != nil {
		return true
	}
	return ro == 0
}

// SetReadOnly sets the stored read-only flag of a type.
// Returns ErrNotFound if the type was never persisted.
func (b *Backend) SetReadOnly(side types.Side, name string, readOnly bool) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrBackendDetached
	}
	res, err := b.db.Exec("UPDATE types SET read_only = ? WHERE side = ? AND name = ?",
		boolInt(readOnly), side.String(), name)
	if err != nil {
		return fmt.Errorf("updating %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s type %q", types.ErrNotFound, side, name)
	}
	return b.persistJSONL()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanType(s scanner) (*types.TypeNode, error) {
	var sideName, name, super, counterpart string
	var configures int
	if err := s.Scan(&sideName, &name, &super, &counterpart, &configures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning type: %w", err)
	}
	side, err := types.ParseSide(sideName)
	if err != nil {
		return nil, fmt.Errorf("%w: type %q: %v", types.ErrInvalidData, name, err)
	}
	return &types.TypeNode{
		Name:                  name,
		Side:                  side,
		Supertype:             super,
		Counterpart:           counterpart,
		ConfiguresCounterpart: configures != 0,
	}, nil
}

// hydrate loads the owned collections of t.
func (b *Backend) hydrate(t *types.TypeNode) error {
	if err := b.loadProperties(t); err != nil {
		return err
	}
	if !t.IsConfigured() {
		return nil
	}
	if err := b.loadCategories(t); err != nil {
		return err
	}
	refs, err := b.db.Query("SELECT property_id FROM property_refs WHERE owner = ? ORDER BY ordinal", t.Name)
	if err != nil {
		return fmt.Errorf("querying property references of %q: %w", t.Name, err)
	}
	defer refs.Close()
	for refs.Next() {
		var id string
		if err := refs.Scan(&id); err != nil {
			return fmt.Errorf("scanning property reference: %w", err)
		}
		t.PropertyRefs = append(t.PropertyRefs, id)
	}
	if err := refs.Err(); err != nil {
		return err
	}

	pending, err := b.db.Query(`SELECT property_id, COALESCE(category, ''), COALESCE(position, 0)
		FROM pending_changes WHERE owner = ? ORDER BY ordinal`, t.Name)
	if err != nil {
		return fmt.Errorf("querying pending changes of %q: %w", t.Name, err)
	}
	defer pending.Close()
	for pending.Next() {
		var pc types.PendingChange
		if err := pending.Scan(&pc.PropertyID, &pc.Category, &pc.Position); err != nil {
			return fmt.Errorf("scanning pending change: %w", err)
		}
		t.PendingChanges = append(t.PendingChanges, pc)
	}
	return pending.Err()
}

func (b *Backend) loadProperties(t *types.TypeNode) error {
	rows, err := b.db.Query(`SELECT property_id, kind, name, COALESCE(overwrite, 0), COALESCE(relevant, 0),
		COALESCE(category, ''), COALESCE(category_position, 0), COALESCE(payload, '')
		FROM properties WHERE owner_side = ? AND owner = ? ORDER BY ordinal`, t.Side.String(), t.Name)
	if err != nil {
		return fmt.Errorf("querying properties of %q: %w", t.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p types.Property
		var kind, payload string
		var overwrite, relevant int
		if err := rows.Scan(&p.ID, &kind, &p.Name, &overwrite, &relevant,
			&p.Category, &p.CategoryPosition, &payload); err != nil {
			return fmt.Errorf("scanning property: %w", err)
		}
		k, err := types.ParseKind(kind)
		if err != nil {
			b.logger.Debug("skipping property with unknown kind", "type", t.Name, "property_id", p.ID, "kind", kind)
			continue
		}
		p.Kind = k
		p.Overwrite = overwrite != 0
		p.Relevant = relevant != 0
		if err := decodePayload(&p, payload); err != nil {
			return err
		}
		t.AddProperty(&p)
	}
	return rows.Err()
}

func (b *Backend) loadCategories(t *types.TypeNode) error {
	rows, err := b.db.Query(`SELECT name, position,
		COALESCE(default_configuration_attributes, 0), COALESCE(default_configured_attributes, 0),
		COALESCE(default_formula_signatures, 0), COALESCE(default_table_usages, 0),
		COALESCE(default_validation_rules, 0)
		FROM categories WHERE owner = ? ORDER BY ordinal`, t.Name)
	if err != nil {
		return fmt.Errorf("querying categories of %q: %w", t.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c types.Category
		var position string
		var flags [5]int
		if err := rows.Scan(&c.Name, &position, &flags[0], &flags[1], &flags[2], &flags[3], &flags[4]); err != nil {
			return fmt.Errorf("scanning category: %w", err)
		}
		pos, err := types.ParsePosition(position)
		if err != nil {
			return fmt.Errorf("%w: category %q of %q: %v", types.ErrInvalidData, c.Name, t.Name, err)
		}
		c.Position = pos
		c.DefaultForConfigurationAttributes = flags[0] != 0
		c.DefaultForConfiguredAttributes = flags[1] != 0
		c.DefaultForFormulaSignatures = flags[2] != 0
		c.DefaultForTableUsages = flags[3] != 0
		c.DefaultForValidationRules = flags[4] != 0
		t.AddCategory(&c)
	}
	return rows.Err()
}

// persistJSONL rewrites every JSONL file from its table, at once or on
// Detach depending on the sync strategy.
func (b *Backend) persistJSONL() error {
	for _, m := range jsonlTableMapping {
		persist := func() error { return b.persistTableJSONL(m.table, m.file, m.columns, m.orderBy) }
		if !b.shouldPersistImmediately() {
			b.queueWrite(m.file, persist)
			continue
		}
		if err := persist(); err != nil {
			return err
		}
	}
	return nil
}

// persistTableJSONL dumps a table to its JSONL file.
func (b *Backend) persistTableJSONL(table, file string, columns []string, orderBy string) error {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), table, orderBy)
	rows, err := b.db.Query(query)
	if err != nil {
		return fmt.Errorf("querying %s for JSONL: %w", table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning %s row: %w", table, err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := values[i].([]byte); ok {
				rec[col] = string(raw)
				continue
			}
			rec[col] = values[i]
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling %s row: %w", table, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s for JSONL: %w", table, err)
	}
	return writeJSONL(filepath.Join(b.config.DataDir, file), records)
}
