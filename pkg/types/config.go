package types

// Config holds backend selection and parameters for Backend.Attach and the
// engine's display convention.
type Config struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	SyncStrategy string `json:"sync_strategy,omitempty" yaml:"sync_strategy,omitempty"`
	DisplayOrder string `json:"display_order,omitempty" yaml:"display_order,omitempty"`
	ReadOnly     bool   `json:"read_only,omitempty" yaml:"read_only,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Sync strategies control when JSONL files are rewritten.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
)

// DisplayOrder selects which category column is listed first when the
// categories of a type are concatenated.
type DisplayOrder string

// Display orders.
const (
	DisplayLeftFirst  DisplayOrder = "left-first"
	DisplayRightFirst DisplayOrder = "right-first"
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownSyncStrategies = map[string]bool{
	"":            true,
	SyncImmediate: true,
	SyncOnClose:   true,
}

var knownDisplayOrders = map[string]bool{
	"":                        true,
	string(DisplayLeftFirst):  true,
	string(DisplayRightFirst): true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownSyncStrategies[c.SyncStrategy] {
		return ErrSyncStrategyUnknown
	}
	if !knownDisplayOrders[c.DisplayOrder] {
		return ErrDisplayOrderUnknown
	}
	return nil
}

// GetSyncStrategy returns the effective sync strategy.
func (c Config) GetSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetDisplayOrder returns the effective display order.
func (c Config) GetDisplayOrder() DisplayOrder {
	if c.DisplayOrder == "" {
		return DisplayLeftFirst
	}
	return DisplayOrder(c.DisplayOrder)
}
