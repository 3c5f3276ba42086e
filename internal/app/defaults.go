package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dumpstats/internal/config"
)

// Environment variables consulted for defaults.
const (
	EnvConfigPath    = "DUMPSTATS_CONFIG_PATH" // config file location
	EnvHome          = "DUMPSTATS_HOME"        // base directory for dumpstats data
	EnvPassphraseVar = "DUMPSTATS_PASSPHRASE"  // passphrase of the age private key
)

// Defaults are the paths used when no config file overrides them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	CacheDir   string
}

// GetDefaults returns application default paths, checking environment variables first:
// $DUMPSTATS_CONFIG_PATH (default ~/.config/dumpstats.toml) and
// $DUMPSTATS_HOME (default ~/.local/share/dumpstats).
func GetDefaults() (*Defaults, error) {
	configPath, err := fromEnvOrHome(EnvConfigPath, ".config", "dumpstats.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := fromEnvOrHome(EnvHome, ".local", "share", "dumpstats")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		CacheDir:   filepath.Join(baseDir, "cache"),
	}, nil
}

func fromEnvOrHome(env string, rel ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, rel...)...), nil
}

// LoadConfig reads the config file at the default location and applies
// DUMPSTATS_* overrides. Without a config file the built-in defaults are
// used, so a dump can be analyzed before running 'config init'.
func LoadConfig() (*config.Config, error) {
	d, err := GetDefaults()
	if err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(d.ConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.NewConfig(d.BaseDir), nil
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
