// Package config handles classforge.toml framework configuration,
// following manifest.Load's shape from the teacher exactly: read one TOML
// file from a directory, unmarshal, wrap I/O and parse errors with
// context.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is a classforge.toml framework instance description.
type Config struct {
	Framework    Framework    `toml:"framework"`
	Logging      Logging      `toml:"logging"`
	Registration Registration `toml:"registration"`
	Audit        Audit        `toml:"audit"`
	Snapshot     Snapshot     `toml:"snapshot"`

	// Dir is the directory the classforge.toml file was loaded from
	// (set at load time).
	Dir string `toml:"-"`
}

// Framework configures the transform.Manager's fail strategy and whether
// transformer hotswapping is enabled (spec.md §6).
type Framework struct {
	FailStrategy string `toml:"fail-strategy"`
	Hotswap      bool   `toml:"hotswap"`
}

// Logging configures the ambient logger's minimum level.
type Logging struct {
	Level string `toml:"level"`
}

// Registration configures the transformer search roots used for wildcard
// registration (spec.md §6).
type Registration struct {
	Roots []string `toml:"roots"`
}

// Audit configures the audit.Store's database path (§10.2).
type Audit struct {
	Path string `toml:"path"`
}

// Snapshot configures the snapshot.Store's file path (§10.1).
type Snapshot struct {
	Path string `toml:"path"`
}

// Load reads classforge.toml from dir, the same shape as manifest.Load:
// read the file, toml.Unmarshal it, wrap errors with file context, then
// apply defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "classforge.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Framework.FailStrategy == "" {
		c.Framework.FailStrategy = "continue"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.Registration.Roots) == 0 {
		c.Registration.Roots = []string{"transformers"}
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "classforge-audit.db"
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = "classforge-snapshot.cbor"
	}
}

// AuditPath returns the absolute path to the configured audit database.
func (c *Config) AuditPath() string {
	if filepath.IsAbs(c.Audit.Path) {
		return c.Audit.Path
	}
	return filepath.Join(c.Dir, c.Audit.Path)
}

// SnapshotPath returns the absolute path to the configured snapshot file.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.Path) {
		return c.Snapshot.Path
	}
	return filepath.Join(c.Dir, c.Snapshot.Path)
}
