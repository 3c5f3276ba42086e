package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config represents the main configuration for dumpstats.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir" validate:"required"`
	DumpDir    string           `toml:"dump_dir,omitempty"`       // default dump when none is given on the command line
	Timezone   string           `toml:"timezone"`                 // IANA name; empty means the system zone
	Workers    int              `toml:"workers" validate:"min=0"` // column fan-out; 0 means one per CPU
	Cache      CacheConfig      `toml:"cache"`
	Encryption EncryptionConfig `toml:"encryption"`
	Analysis   AnalysisConfig   `toml:"analysis"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// CacheConfig represents configuration for the source cache.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CacheConfig struct {
	Type     string `toml:"type" validate:"oneof=sqlite memory"`              // "sqlite" or "memory"
	Dir      string `toml:"dir,omitempty" validate:"required_if=Type sqlite"` // only used for type=sqlite
	Compress bool   `toml:"compress"`                                         // zstd-compress artifacts
}

// EncryptionConfig selects how cache artifacts are encrypted at rest.
type EncryptionConfig struct {
	Type           string `toml:"type" validate:"omitempty,oneof=none age test"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path,omitempty" validate:"required_if=Type age"`
	PrivateKeyPath string `toml:"private_key_path,omitempty" validate:"required_if=Type age"`
}

// AnalysisConfig holds defaults for the analysis commands.
type AnalysisConfig struct {
	Columns  []string `toml:"columns" validate:"dive,required"` // activity columns split by category
	Interval string   `toml:"interval"`                         // bucket width for series, e.g. "day" or "6h"
	TopWords int      `toml:"top_words" validate:"min=-1"`      // words shown by default; -1 shows all
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Cache: CacheConfig{
			Type:     "sqlite",
			Dir:      filepath.Join(baseDir, "cache"),
			Compress: true,
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "dumpstats.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "dumpstats.key"),
		},
		Analysis: AnalysisConfig{
			Columns:  []string{"city", "ip", "os", "release_channel", "guild_id", "event_type", "private"},
			Interval: "day",
			TopWords: 20,
		},
		Filesystem: FilesystemConfig{
			Ignore: []string{".*"},
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Validate checks enum values, ranges and fields required by the selected
// cache and encryption types.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// EnvPrefix prefixes environment variables that override config values.
// Nested keys are separated by a double underscore, so
// DUMPSTATS_CACHE__TYPE sets cache.type and DUMPSTATS_TIMEZONE sets timezone.
// List values are comma separated.
const EnvPrefix = "DUMPSTATS_"

// ApplyEnv overrides cfg with any DUMPSTATS_* environment variables.
// Variables that name no config key are ignored.
func ApplyEnv(cfg *Config) error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	strs := map[string]*string{
		"base_dir":                    &cfg.BaseDir,
		"log_dir":                     &cfg.LogDir,
		"dump_dir":                    &cfg.DumpDir,
		"timezone":                    &cfg.Timezone,
		"cache.type":                  &cfg.Cache.Type,
		"cache.dir":                   &cfg.Cache.Dir,
		"encryption.type":             &cfg.Encryption.Type,
		"encryption.public_key_path":  &cfg.Encryption.PublicKeyPath,
		"encryption.private_key_path": &cfg.Encryption.PrivateKeyPath,
		"analysis.interval":           &cfg.Analysis.Interval,
	}
	for key, dst := range strs {
		if k.Exists(key) {
			*dst = k.String(key)
		}
	}

	ints := map[string]*int{
		"workers":            &cfg.Workers,
		"analysis.top_words": &cfg.Analysis.TopWords,
	}
	for key, dst := range ints {
		if !k.Exists(key) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(k.String(key)))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, envName(key), err)
		}
		*dst = n
	}

	if k.Exists("cache.compress") {
		b, err := strconv.ParseBool(strings.TrimSpace(k.String("cache.compress")))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, envName("cache.compress"), err)
		}
		cfg.Cache.Compress = b
	}

	lists := map[string]*[]string{
		"analysis.columns":  &cfg.Analysis.Columns,
		"filesystem.ignore": &cfg.Filesystem.Ignore,
	}
	for key, dst := range lists {
		if k.Exists(key) {
			*dst = splitList(k.String(key))
		}
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
