package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/cmdmgr/internal/binding"
	"github.com/dshills/cmdmgr/internal/command/ident"
	"github.com/dshills/cmdmgr/internal/config/loader"
	"github.com/dshills/cmdmgr/internal/input/key"
)

// EnvPrefix starts every environment variable the package reads.
const EnvPrefix = "CMDMGR_"

// Config holds every setting.
type Config struct {
	Registry RegistryConfig `toml:"registry"`
	Bindings BindingsConfig `toml:"bindings"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Log      LogConfig      `toml:"log"`

	// path is the file the configuration was read from, if any.
	path string
}

// RegistryConfig configures the command registry.
type RegistryConfig struct {
	// ReservedIDs is the highest identifier left to the host toolkit.
	ReservedIDs int64 `toml:"reserved_ids"`

	// SuppressedKeys are never bound by default.
	SuppressedKeys []string `toml:"suppressed_keys"`
}

// BindingsConfig configures shortcut persistence.
type BindingsConfig struct {
	// File is the bindings document. Empty disables persistence.
	File   string `toml:"file"`
	Format string `toml:"format"`
	Policy string `toml:"policy"`
	Watch  bool   `toml:"watch"`
}

// DispatchConfig configures the dispatcher.
type DispatchConfig struct {
	RecoverPanics bool `toml:"recover_panics"`
	Metrics       bool `toml:"metrics"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{ReservedIDs: int64(ident.DefaultReserved)},
		Bindings: BindingsConfig{Policy: binding.Customized.String()},
		Dispatch: DispatchConfig{RecoverPanics: true},
		Log:      LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// EnvMapping returns the environment variables read by Load and the
// settings they override.
func EnvMapping() map[string]string {
	return map[string]string{
		EnvPrefix + "RESERVED_IDS":    "registry.reserved_ids",
		EnvPrefix + "SUPPRESSED_KEYS": "registry.suppressed_keys",
		EnvPrefix + "BINDINGS_FILE":   "bindings.file",
		EnvPrefix + "BINDINGS_FORMAT": "bindings.format",
		EnvPrefix + "BINDINGS_POLICY": "bindings.policy",
		EnvPrefix + "BINDINGS_WATCH":  "bindings.watch",
		EnvPrefix + "RECOVER_PANICS":  "dispatch.recover_panics",
		EnvPrefix + "METRICS":         "dispatch.metrics",
		EnvPrefix + "LOG_LEVEL":       "log.level",
		EnvPrefix + "LOG_FILE":        "log.file",
		EnvPrefix + "LOG_MAX_SIZE_MB": "log.max_size_mb",
		EnvPrefix + "LOG_MAX_BACKUPS": "log.max_backups",
	}
}

// DefaultPath returns the per-user configuration file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "cmdmgr", "config.toml"), nil
}

// Load reads path, or DefaultPath when path is empty, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return LoadFrom(loader.NewTOMLLoader(path), loader.NewEnvLoader(EnvMapping()))
}

// LoadFrom builds a Config from a file loader and an environment loader.
// Either may be nil.
func LoadFrom(file *loader.TOMLLoader, env *loader.EnvLoader) (*Config, error) {
	merged := make(map[string]any)
	cfg := Default()

	if file != nil {
		cfg.path = file.Path()
		data, err := file.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, data)
	}
	if env != nil {
		data, err := env.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, data)
	}

	if err := cfg.decode(merged); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays the merged map onto c.
func (c *Config) decode(merged map[string]any) error {
	if reg, ok := merged["registry"].(map[string]any); ok {
		// A single key from the environment arrives as a plain string.
		if s, ok := reg["suppressed_keys"].(string); ok {
			reg["suppressed_keys"] = []any{s}
		}
	}

	data, err := toml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config %s: %w:\n%s", c.source(), ErrUnknownSetting, strict.String())
		}
		return fmt.Errorf("config %s: %w: %w", c.source(), ErrTypeMismatch, err)
	}
	return nil
}

func (c *Config) source() string {
	if c.path == "" {
		return "<defaults>"
	}
	return c.path
}

// Path returns the file the configuration was read from.
func (c *Config) Path() string {
	return c.path
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if c.Registry.ReservedIDs < 0 || c.Registry.ReservedIDs >= math.MaxInt32 {
		bad("registry.reserved_ids", "must be between 0 and 2147483646", c.Registry.ReservedIDs)
	}
	for _, k := range c.Registry.SuppressedKeys {
		if _, err := key.Canonical(k); err != nil {
			bad("registry.suppressed_keys", err.Error(), k)
		}
	}

	if c.Bindings.Format != "" {
		if _, err := binding.ParseFormat(c.Bindings.Format); err != nil {
			bad("bindings.format", "must be xml, yaml or toml", c.Bindings.Format)
		}
	} else if c.Bindings.File != "" {
		if _, err := binding.FormatFromPath(c.Bindings.File); err != nil {
			bad("bindings.file", "format cannot be inferred from the extension; set bindings.format", c.Bindings.File)
		}
	}
	if _, err := binding.ParsePolicy(c.Bindings.Policy); err != nil {
		bad("bindings.policy", "must be customized or all", c.Bindings.Policy)
	}

	if !logLevels[c.Log.Level] {
		bad("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 0 {
		bad("log.max_size_mb", "must not be negative", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		bad("log.max_backups", "must not be negative", c.Log.MaxBackups)
	}

	return errors.Join(errs...)
}

// BindingsPath returns the bindings file resolved against the directory of
// the configuration file, or "" when persistence is off.
func (c *Config) BindingsPath() string {
	f := c.Bindings.File
	if f == "" || filepath.IsAbs(f) || c.path == "" {
		return f
	}
	return filepath.Join(filepath.Dir(c.path), f)
}

// BindingsFormat returns the configured format, falling back to the
// bindings file extension.
func (c *Config) BindingsFormat() (binding.Format, error) {
	if c.Bindings.Format != "" {
		return binding.ParseFormat(c.Bindings.Format)
	}
	return binding.FormatFromPath(c.Bindings.File)
}

// BindingsPolicy returns the parsed persistence policy.
func (c *Config) BindingsPolicy() binding.Policy {
	p, _ := binding.ParsePolicy(c.Bindings.Policy)
	return p
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}
