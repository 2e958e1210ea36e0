package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeySyncStrategy = "sync_strategy"
	cfgKeyDisplayOrder = "display_order"
	cfgKeyReadOnly     = "read_only"
	cfgKeyLogLevel     = "log_level"
)

// configFile is the shape written to config.yaml.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
	DisplayOrder string `yaml:"display_order"`
	LogLevel     string `yaml:"log_level"`
}

// settings is the resolved configuration of one invocation.
type settings struct {
	ConfigDir    string
	Backend      string
	DataDir      string
	SyncStrategy string
	DisplayOrder types.DisplayOrder
	ReadOnly     bool
	LogLevel     slog.Level
}

// loadSettings reads config.yaml from configDir with viper. A missing
// file is not an error; defaults apply.
func loadSettings(configDir string) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyDisplayOrder, string(types.DisplayLeftFirst))
	v.SetDefault(cfgKeyLogLevel, "warn")
	if err := v.BindEnv(cfgKeyLogLevel, "PRODMODEL_LOG_LEVEL"); err != nil {
		return settings{}, err
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, usage("read config: %v", err)
		}
	}

	s := settings{
		ConfigDir:    configDir,
		Backend:      v.GetString(cfgKeyBackend),
		DataDir:      v.GetString(cfgKeyDataDir),
		SyncStrategy: v.GetString(cfgKeySyncStrategy),
		DisplayOrder: types.DisplayOrder(v.GetString(cfgKeyDisplayOrder)),
		ReadOnly:     v.GetBool(cfgKeyReadOnly),
	}
	if err := s.LogLevel.UnmarshalText([]byte(v.GetString(cfgKeyLogLevel))); err != nil {
		return settings{}, usage("config %s: %v", cfgKeyLogLevel, err)
	}
	return s, nil
}

// backendConfig returns the backend configuration for dataDir.
func (s settings) backendConfig(dataDir string) types.Config {
	return types.Config{
		Backend:      s.Backend,
		DataDir:      dataDir,
		SyncStrategy: s.SyncStrategy,
		DisplayOrder: string(s.DisplayOrder),
		ReadOnly:     s.ReadOnly,
	}
}

// writeConfigIfMissing creates configDir and a default config.yaml in it
// unless the file already exists. It reports whether a file was written.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(configFile{
		Backend:      types.BackendSQLite,
		DataDir:      dataDir,
		SyncStrategy: types.SyncImmediate,
		DisplayOrder: string(types.DisplayLeftFirst),
		LogLevel:     "warn",
	})
	if err != nil {
		return false, err
	}
	header := []byte("# prodmodel configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
