package config

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// setupConfigDir points the config file lookup at a fresh temp dir and
// neutralizes ambient env overrides so tests see only what they set.
func setupConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("OCUSAGE_CONFIG_DIR", dir)
	t.Setenv("OPENCODE_DB", "")
	t.Setenv("NO_COLOR", "")
	return dir
}

func writeConfig(t *testing.T, dir string, data any) {
	t.Helper()
	b, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), b, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeConfigRaw(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func loadFromFlags(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return Load(fs)
}

func TestDefaultDBPathLocation(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	want := filepath.Join("opencode", "opencode.db")
	if !strings.HasSuffix(path, want) {
		t.Errorf("path %q does not end in %q", path, want)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("path %q is not absolute", path)
	}
}

func TestDefaultDBPathXDGOverride(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_DATA_HOME only applies on Linux and friends")
	}
	t.Setenv("XDG_DATA_HOME", "/srv/data")

	path, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if want := filepath.Join("/srv/data", "opencode", "opencode.db"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("default DBPath is empty")
	}
	if cfg.NoColor || cfg.DefaultDays != 0 || cfg.DefaultLimit != 0 {
		t.Errorf("unexpected non-zero defaults: %+v", cfg)
	}
}

func TestLoadMinimalMissingFile(t *testing.T) {
	setupConfigDir(t)

	cfg, err := LoadMinimal()
	if err != nil {
		t.Fatalf("LoadMinimal without a config file: %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath not defaulted")
	}
}

func TestLoadMinimalFileOverrides(t *testing.T) {
	dir := setupConfigDir(t)
	writeConfig(t, dir, map[string]any{
		"db_path":       "/custom/opencode.db",
		"no_color":      true,
		"default_days":  14,
		"default_limit": 25,
	})

	cfg, err := LoadMinimal()
	if err != nil {
		t.Fatalf("LoadMinimal: %v", err)
	}
	if cfg.DBPath != "/custom/opencode.db" {
		t.Errorf("DBPath = %q, want file value", cfg.DBPath)
	}
	if !cfg.NoColor {
		t.Error("NoColor not applied from file")
	}
	if cfg.DefaultDays != 14 || cfg.DefaultLimit != 25 {
		t.Errorf("defaults = %d/%d, want 14/25",
			cfg.DefaultDays, cfg.DefaultLimit)
	}
}

func TestLoadMinimalPartialFile(t *testing.T) {
	dir := setupConfigDir(t)
	writeConfig(t, dir, map[string]any{"default_days": 3})

	cfg, err := LoadMinimal()
	if err != nil {
		t.Fatalf("LoadMinimal: %v", err)
	}
	if cfg.DefaultDays != 3 {
		t.Errorf("DefaultDays = %d, want 3", cfg.DefaultDays)
	}
	if cfg.DBPath == "" {
		t.Error("partial file clobbered the default DBPath")
	}
}

func TestLoadMinimalInvalidJSON(t *testing.T) {
	dir := setupConfigDir(t)
	writeConfigRaw(t, dir, "{not json")

	if _, err := LoadMinimal(); err == nil {
		t.Error("invalid config file accepted")
	} else if !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("error = %v, want parsing config", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := setupConfigDir(t)
	writeConfig(t, dir, map[string]any{"db_path": "/from/file.db"})
	t.Setenv("OPENCODE_DB", "/from/env.db")

	cfg, err := LoadMinimal()
	if err != nil {
		t.Fatalf("LoadMinimal: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("DBPath = %q, want env value", cfg.DBPath)
	}
}

func TestNoColorEnvConvention(t *testing.T) {
	setupConfigDir(t)
	t.Setenv("NO_COLOR", "1")

	cfg, err := LoadMinimal()
	if err != nil {
		t.Fatalf("LoadMinimal: %v", err)
	}
	if !cfg.NoColor {
		t.Error("NO_COLOR env var not honored")
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	setupConfigDir(t)
	t.Setenv("OPENCODE_DB", "/from/env.db")

	cfg, err := loadFromFlags(t, "-db", "/from/flag.db", "-no-color")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/from/flag.db" {
		t.Errorf("DBPath = %q, want flag value", cfg.DBPath)
	}
	if !cfg.NoColor {
		t.Error("-no-color flag not applied")
	}
}

func TestUnsetFlagsKeepLowerLayers(t *testing.T) {
	setupConfigDir(t)
	t.Setenv("OPENCODE_DB", "/from/env.db")

	cfg, err := loadFromFlags(t)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("unset -db flag clobbered env value: %q", cfg.DBPath)
	}
	if cfg.NoColor {
		t.Error("unset -no-color flag turned color off")
	}
}

func TestLoadNilFlagSet(t *testing.T) {
	setupConfigDir(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath not defaulted")
	}
}
