package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[framework]
fail-strategy = "cancel"
hotswap = true

[logging]
level = "debug"

[registration]
roots = ["transformers", "mixins"]

[audit]
path = "audit.db"

[snapshot]
path = "snap.cbor"
`
	if err := os.WriteFile(filepath.Join(dir, "classforge.toml"), []byte(tomlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Framework.FailStrategy != "cancel" {
		t.Errorf("fail-strategy = %q, want cancel", c.Framework.FailStrategy)
	}
	if !c.Framework.Hotswap {
		t.Error("hotswap = false, want true")
	}
	if c.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", c.Logging.Level)
	}
	if len(c.Registration.Roots) != 2 || c.Registration.Roots[1] != "mixins" {
		t.Errorf("registration roots = %v, want [transformers mixins]", c.Registration.Roots)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "classforge.toml"), []byte("[framework]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Framework.FailStrategy != "continue" {
		t.Errorf("default fail-strategy = %q, want continue", c.Framework.FailStrategy)
	}
	if c.Logging.Level != "info" {
		t.Errorf("default logging level = %q, want info", c.Logging.Level)
	}
	if len(c.Registration.Roots) != 1 || c.Registration.Roots[0] != "transformers" {
		t.Errorf("default registration roots = %v, want [transformers]", c.Registration.Roots)
	}
	if c.Audit.Path != "classforge-audit.db" {
		t.Errorf("default audit path = %q, want classforge-audit.db", c.Audit.Path)
	}
	if c.Snapshot.Path != "classforge-snapshot.cbor" {
		t.Errorf("default snapshot path = %q, want classforge-snapshot.cbor", c.Snapshot.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error loading a directory with no classforge.toml")
	}
}

func TestAuditAndSnapshotPathResolution(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "classforge.toml"), []byte("[audit]\npath = \"/abs/audit.db\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.AuditPath() != "/abs/audit.db" {
		t.Errorf("AuditPath() = %q, want absolute path preserved", c.AuditPath())
	}
	want := filepath.Join(c.Dir, "classforge-snapshot.cbor")
	if c.SnapshotPath() != want {
		t.Errorf("SnapshotPath() = %q, want %q", c.SnapshotPath(), want)
	}
}
