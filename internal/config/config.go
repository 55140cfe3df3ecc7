// Package config resolves where the OpenCode database lives and how
// reports should be presented by default.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all application configuration.
type Config struct {
	DBPath       string `json:"db_path"`
	NoColor      bool   `json:"no_color"`
	DefaultDays  int    `json:"default_days"`
	DefaultLimit int    `json:"default_limit"`
}

// Default returns a Config pointing at the platform's OpenCode
// database location.
func Default() (Config, error) {
	path, err := DefaultDBPath()
	if err != nil {
		return Config{}, err
	}
	return Config{DBPath: path}, nil
}

// DefaultDBPath returns where OpenCode stores its database on this
// platform. OpenCode follows the XDG data layout everywhere except
// Windows, including on macOS.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
	case "darwin":
		base = filepath.Join(home, ".local", "share")
	default:
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			base = filepath.Join(home, ".local", "share")
		}
	}
	return filepath.Join(base, "opencode", "opencode.db"), nil
}

// Load builds a Config by layering: defaults < config file < env <
// flags. The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file, and env,
// without CLI flags. Use this for subcommands that manage their own
// flag sets.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	return cfg, nil
}

func configPath() (string, error) {
	if dir := os.Getenv("OCUSAGE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "config.json"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determining config directory: %w", err)
	}
	return filepath.Join(dir, "ocusage", "config.json"), nil
}

func (c *Config) loadFile() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		DBPath       string `json:"db_path"`
		NoColor      bool   `json:"no_color"`
		DefaultDays  int    `json:"default_days"`
		DefaultLimit int    `json:"default_limit"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	if file.DBPath != "" {
		c.DBPath = file.DBPath
	}
	if file.NoColor {
		c.NoColor = true
	}
	if file.DefaultDays > 0 {
		c.DefaultDays = file.DefaultDays
	}
	if file.DefaultLimit > 0 {
		c.DefaultLimit = file.DefaultLimit
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("OPENCODE_DB"); v != "" {
		c.DBPath = v
	}
	// Per the NO_COLOR convention, any non-empty value disables color.
	if v := os.Getenv("NO_COLOR"); v != "" {
		c.NoColor = true
	}
}

// RegisterFlags registers the flags every reporting command shares.
// The caller must call fs.Parse before passing fs to Load.
func RegisterFlags(fs *flag.FlagSet) {
	fs.String("db", "", "Path to the OpenCode database")
	fs.Bool("no-color", false, "Disable colored output")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DBPath = f.Value.String()
		case "no-color":
			cfg.NoColor = f.Value.String() == "true"
		}
	})
}
