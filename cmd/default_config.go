package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StoreConfig selects and locates the record store.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, sqlite or postgres
	Path    string `yaml:"path"`    // sqlite database file; "~/" is expanded
	DSN     string `yaml:"dsn"`     // postgres connection string
}

// DesignConfig holds defaults applied by `nanomed design`.
type DesignConfig struct {
	EncapsulationPct float64 `yaml:"encapsulation_pct"`
}

// TreatmentConfig holds defaults applied by `nanomed treat create`.
type TreatmentConfig struct {
	Frequency string `yaml:"frequency"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version   string          `yaml:"version"`
	Store     StoreConfig     `yaml:"store"`
	Design    DesignConfig    `yaml:"design"`
	Treatment TreatmentConfig `yaml:"treatment"`
}

// ValidBackends lists the accepted store.backend values.
var ValidBackends = map[string]bool{
	"memory":   true,
	"sqlite":   true,
	"postgres": true,
}

// DefaultConfig returns the configuration used when no defaults.yaml exists.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    filepath.Join("~", ".nanomed", "nanomed.db"),
		},
		Design:    DesignConfig{EncapsulationPct: 85},
		Treatment: TreatmentConfig{Frequency: "daily"},
	}
}

// LoadConfig reads path over the built-in defaults. A missing file is not an error;
// keys omitted from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read defaults file %s: %w", path, err)
	}
	return parseConfig(data)
}

// parseConfig decodes defaults.yaml with strict field checking: typos must cause errors.
func parseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse defaults YAML: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !ValidBackends[c.Store.Backend] {
		return fmt.Errorf("unknown store backend %q (valid: memory, sqlite, postgres)", c.Store.Backend)
	}
	if c.Design.EncapsulationPct < 0 || c.Design.EncapsulationPct > 100 {
		return fmt.Errorf("design.encapsulation_pct %v out of range [0, 100]", c.Design.EncapsulationPct)
	}
	if strings.TrimSpace(c.Treatment.Frequency) == "" {
		return errors.New("treatment.frequency must not be empty")
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
