package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesDatabaseAndTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file to exist at %s: %v", path, err)
	}
}

func TestRecordAndRecentForTarget(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	store.Record("session-1", "Inject", "com/acme/MixinA", "com/acme/Target", "handler faulted", "continue")
	store.Record("session-1", "Redirect", "com/acme/MixinB", "com/acme/Target", "no injection point matched", "cancel")
	store.Record("session-2", "Inject", "com/acme/MixinC", "com/acme/Other", "unrelated", "continue")

	entries, err := store.RecentForTarget("com/acme/Target", 10)
	if err != nil {
		t.Fatalf("RecentForTarget failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for com/acme/Target, got %d", len(entries))
	}
	// newest first
	if entries[0].Handler != "Redirect" || entries[0].Decision != DecisionCancel {
		t.Errorf("expected newest entry first (Redirect/cancel), got %+v", entries[0])
	}
	if entries[1].Handler != "Inject" || entries[1].Decision != DecisionContinue {
		t.Errorf("expected oldest entry last (Inject/continue), got %+v", entries[1])
	}
}

func TestRecentForTarget_RespectsLimit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	for i := 0; i < 5; i++ {
		store.Record("session", "Inject", "com/acme/Mixin", "com/acme/Target", "fault", "continue")
	}

	entries, err := store.RecentForTarget("com/acme/Target", 2)
	if err != nil {
		t.Fatalf("RecentForTarget failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit of 2 entries, got %d", len(entries))
	}
}

func TestRecentForTarget_EmptyForUnknownTarget(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	entries, err := store.RecentForTarget("com/acme/Nobody", 10)
	if err != nil {
		t.Fatalf("RecentForTarget failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries for an unknown target, got %d", len(entries))
	}
}
