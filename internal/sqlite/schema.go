package sqlite

// Schema DDL. Categories, property references and pending changes belong to
// configured types only, so their owner column names a configured type.
// Columns with a default may be NULL when a hand-edited JSONL record omits
// them; queries read them through COALESCE.
const (
	createTypes = `CREATE TABLE types (
    side TEXT NOT NULL,
    name TEXT NOT NULL,
    supertype TEXT DEFAULT '',
    counterpart TEXT DEFAULT '',
    configures_counterpart INTEGER DEFAULT 0,
    read_only INTEGER DEFAULT 0,
    PRIMARY KEY (side, name)
);`

	createProperties = `CREATE TABLE properties (
    property_id TEXT PRIMARY KEY,
    owner_side TEXT NOT NULL,
    owner TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    overwrite INTEGER DEFAULT 0,
    relevant INTEGER DEFAULT 0,
    category TEXT DEFAULT '',
    category_position INTEGER DEFAULT 0,
    payload TEXT
);`

	createCategories = `CREATE TABLE categories (
    owner TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    name TEXT NOT NULL,
    position TEXT NOT NULL,
    default_configuration_attributes INTEGER DEFAULT 0,
    default_configured_attributes INTEGER DEFAULT 0,
    default_formula_signatures INTEGER DEFAULT 0,
    default_table_usages INTEGER DEFAULT 0,
    default_validation_rules INTEGER DEFAULT 0,
    PRIMARY KEY (owner, ordinal)
);`

	createPropertyRefs = `CREATE TABLE property_refs (
    owner TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    property_id TEXT NOT NULL,
    PRIMARY KEY (owner, ordinal)
);`

	createPendingChanges = `CREATE TABLE pending_changes (
    owner TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    property_id TEXT NOT NULL,
    category TEXT DEFAULT '',
    position INTEGER DEFAULT 0,
    PRIMARY KEY (owner, ordinal)
);`
)

// Index DDL for common queries.
const (
	idxPropertiesOwner = `CREATE INDEX idx_properties_owner ON properties(owner_side, owner);`
	idxPropertiesKind  = `CREATE INDEX idx_properties_kind ON properties(kind, name);`
	idxTypesSupertype  = `CREATE INDEX idx_types_supertype ON types(side, supertype);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createTypes,
	createProperties,
	createCategories,
	createPropertyRefs,
	createPendingChanges,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxPropertiesOwner,
	idxPropertiesKind,
	idxTypesSupertype,
}
