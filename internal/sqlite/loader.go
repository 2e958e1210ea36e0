package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL files to their SQLite tables, the columns
// loaded from each record, and the order rows are written back in.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
	orderBy string
}{
	{typesJSONL, "types",
		[]string{"side", "name", "supertype", "counterpart", "configures_counterpart", "read_only"},
		"rowid"},
	{propertiesJSONL, "properties",
		[]string{"property_id", "owner_side", "owner", "ordinal", "kind", "name", "overwrite", "relevant",
			"category", "category_position", "payload"},
		"owner_side, owner, ordinal"},
	{categoriesJSONL, "categories",
		[]string{"owner", "ordinal", "name", "position",
			"default_configuration_attributes", "default_configured_attributes",
			"default_formula_signatures", "default_table_usages", "default_validation_rules"},
		"owner, ordinal"},
	{propertyRefsJSONL, "property_refs",
		[]string{"owner", "ordinal", "property_id"},
		"owner, ordinal"},
	{pendingChangesJSONL, "pending_changes",
		[]string{"owner", "ordinal", "property_id", "category", "position"},
		"owner, ordinal"},
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its records
// into the matching table. Loading is transactional: all files load or the
// database stays empty. Malformed lines and unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, mapping.table, mapping.columns, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into a table. Only the listed
// columns are read; records that fail to parse or violate a constraint are
// skipped.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val, ok := obj[col]
			if !ok {
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					continue
				}
				args[i] = string(b)
			case bool:
				args[i] = boolInt(v)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}
