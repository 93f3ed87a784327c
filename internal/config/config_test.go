package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dshills/cmdmgr/internal/binding"
	"github.com/dshills/cmdmgr/internal/config/loader"
)

func loadString(t *testing.T, content string) (*Config, error) {
	t.Helper()
	fsys := fstest.MapFS{"conf/config.toml": {Data: []byte(content)}}
	return LoadFrom(loader.NewTOMLLoaderWithFS(fsys, "conf/config.toml"), nil)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Registry.ReservedIDs != 5999 {
		t.Errorf("ReservedIDs = %d, want 5999", cfg.Registry.ReservedIDs)
	}
	if !cfg.Dispatch.RecoverPanics {
		t.Error("RecoverPanics should default to true")
	}
	if cfg.BindingsPolicy() != binding.Customized {
		t.Errorf("BindingsPolicy = %v", cfg.BindingsPolicy())
	}
	if cfg.BindingsPath() != "" {
		t.Errorf("BindingsPath = %q, want empty", cfg.BindingsPath())
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := loadString(t, `
[registry]
reserved_ids = 7000
suppressed_keys = ["Space"]

[bindings]
file = "keys.yaml"
policy = "all"
watch = true

[log]
level = "debug"
`)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Registry.ReservedIDs != 7000 {
		t.Errorf("ReservedIDs = %d", cfg.Registry.ReservedIDs)
	}
	if len(cfg.Registry.SuppressedKeys) != 1 || cfg.Registry.SuppressedKeys[0] != "Space" {
		t.Errorf("SuppressedKeys = %v", cfg.Registry.SuppressedKeys)
	}
	if got := cfg.BindingsPath(); got != filepath.Join("conf", "keys.yaml") {
		t.Errorf("BindingsPath = %q", got)
	}
	if f, err := cfg.BindingsFormat(); err != nil || f != binding.FormatYAML {
		t.Errorf("BindingsFormat = %v, %v", f, err)
	}
	if cfg.BindingsPolicy() != binding.All {
		t.Errorf("BindingsPolicy = %v", cfg.BindingsPolicy())
	}
	if !cfg.Bindings.Watch {
		t.Error("Watch not set")
	}

	// Untouched settings keep their defaults
	if !cfg.Dispatch.RecoverPanics || cfg.Log.MaxBackups != 3 {
		t.Errorf("defaults lost: %+v %+v", cfg.Dispatch, cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadFrom(loader.NewTOMLLoaderWithFS(fstest.MapFS{}, "none.toml"), nil)
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if cfg.Path() != "none.toml" {
		t.Errorf("Path = %q", cfg.Path())
	}
}

func TestLoadParseError(t *testing.T) {
	_, err := loadString(t, "[log\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestLoadUnknownSetting(t *testing.T) {
	_, err := loadString(t, "[log]\ncolour = true\n")
	if !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("err = %v, want ErrUnknownSetting", err)
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Errorf("error does not name the key: %v", err)
	}
}

func TestLoadTypeMismatch(t *testing.T) {
	_, err := loadString(t, "[registry]\nreserved_ids = \"many\"\n")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"negative reserve", func(c *Config) { c.Registry.ReservedIDs = -1 }, "registry.reserved_ids"},
		{"bad suppressed key", func(c *Config) { c.Registry.SuppressedKeys = []string{"Hyper+X"} }, "registry.suppressed_keys"},
		{"bad format", func(c *Config) { c.Bindings.Format = "json" }, "bindings.format"},
		{"no extension", func(c *Config) { c.Bindings.File = "keys" }, "bindings.file"},
		{"bad policy", func(c *Config) { c.Bindings.Policy = "some" }, "bindings.policy"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"negative size", func(c *Config) { c.Log.MaxSizeMB = -5 }, "log.max_size_mb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Path != tt.path {
				t.Errorf("ValidationError = %+v, want path %s", ve, tt.path)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Bindings.Policy = "some"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "log.level") || !strings.Contains(msg, "bindings.policy") {
		t.Errorf("Validate() = %q, want both problems", msg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CMDMGR_LOG_LEVEL", "warn")
	t.Setenv("CMDMGR_BINDINGS_WATCH", "yes")
	t.Setenv("CMDMGR_SUPPRESSED_KEYS", "F1")
	t.Setenv("CMDMGR_LOG_MAX_BACKUPS", "1")

	fsys := fstest.MapFS{"config.toml": {Data: []byte("[log]\nlevel = \"debug\"\nmax_size_mb = 20\n")}}
	cfg, err := LoadFrom(
		loader.NewTOMLLoaderWithFS(fsys, "config.toml"),
		loader.NewEnvLoader(EnvMapping()),
	)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, environment should win", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB != 20 {
		t.Errorf("MaxSizeMB = %d, file value lost", cfg.Log.MaxSizeMB)
	}
	if cfg.Log.MaxBackups != 1 {
		t.Errorf("MaxBackups = %d", cfg.Log.MaxBackups)
	}
	if !cfg.Bindings.Watch {
		t.Error("Watch not set from environment")
	}
	if len(cfg.Registry.SuppressedKeys) != 1 || cfg.Registry.SuppressedKeys[0] != "F1" {
		t.Errorf("SuppressedKeys = %v", cfg.Registry.SuppressedKeys)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Registry.SuppressedKeys = []string{"Space"}
	cfg.Bindings.File = "keys.toml"

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(loader.NewTOMLLoaderWithFS(fstest.MapFS{"c.toml": {Data: buf.Bytes()}}, "c.toml"), nil)
	if err != nil {
		t.Fatalf("reloading written config: %v\n%s", err, buf.String())
	}
	if got.Bindings.File != "keys.toml" || len(got.Registry.SuppressedKeys) != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}
}
