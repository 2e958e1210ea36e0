// Package paths resolves where prodmodel keeps its configuration and its
// model data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under platform config and data roots.
const AppName = "prodmodel"

// DefaultDataDirName is the working-directory-relative data directory used
// when nothing overrides it.
const DefaultDataDirName = ".prodmodel"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PRODMODEL_CONFIG_DIR"
	EnvDataDir   = "PRODMODEL_DATA_DIR"
)

// platformDir is swapped in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $env/prodmodel, or ~/<fallback...>/prodmodel when env is
// unset.
func xdgDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/prodmodel (fallback ~/.config/prodmodel)
// macOS:   ~/Library/Application Support/prodmodel
// Windows: %APPDATA%/prodmodel
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/prodmodel (fallback ~/.local/share/prodmodel)
// Elsewhere the configuration directory is reused.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	}
	return DefaultConfigDir()
}

// ResolveConfigDir applies flag > PRODMODEL_CONFIG_DIR > DefaultConfigDir.
// Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config file value > PRODMODEL_DATA_DIR >
// ./.prodmodel.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
