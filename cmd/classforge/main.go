// Command classforge is a small operator CLI around the ambient stack:
// load classforge.toml, open the audit database and snapshot file it
// points at, and answer the two questions an operator actually asks
// between restarts of the real host process — "what does the registry
// look like right now" and "why did transformer X stop applying". It
// does not itself load or transform any JVM class; that only happens
// inside a host that embeds the transform package with a real
// ClassCodec wired in.
package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/classforge/audit"
	"github.com/chazu/classforge/config"
	"github.com/chazu/classforge/logging"
	"github.com/chazu/classforge/snapshot"
)

func main() {
	dir := flag.String("dir", ".", "directory containing classforge.toml")
	initFlag := flag.Bool("init", false, "write a default classforge.toml into -dir and exit")
	snapshotShow := flag.Bool("snapshot", false, "print the current registry snapshot")
	auditTarget := flag.String("audit", "", "print recent audit entries for the given target class")
	auditLimit := flag.Int("audit-limit", 20, "max audit entries to print with -audit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: classforge [options]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects the on-disk state of a classforge-embedding host: its\n")
		fmt.Fprintf(os.Stderr, "classforge.toml, audit database, and registry snapshot.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  classforge -init                  # write a default classforge.toml here\n")
		fmt.Fprintf(os.Stderr, "  classforge -snapshot              # show the last saved registry topology\n")
		fmt.Fprintf(os.Stderr, "  classforge -audit com/acme/Target  # show why Target's transformers faulted\n")
	}
	flag.Parse()

	if *initFlag {
		if err := writeDefaultConfig(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.Configure(cfg.Logging.Level)
	log := logging.New("classforge/cmd")

	switch {
	case *snapshotShow:
		showSnapshot(cfg, log)
	case *auditTarget != "":
		showAudit(cfg, log, *auditTarget, *auditLimit)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func writeDefaultConfig(dir string) error {
	path := dir + string(os.PathSeparator) + "classforge.toml"
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	const body = `[framework]
fail-strategy = "continue"
hotswap = false

[logging]
level = "info"

[registration]
roots = ["transformers"]

[audit]
path = "classforge-audit.db"

[snapshot]
path = "classforge-snapshot.cbor"
`
	return os.WriteFile(path, []byte(body), 0o644)
}

func showSnapshot(cfg *config.Config, log logging.Logger) {
	store := snapshot.NewStore(cfg.SnapshotPath())
	snap, err := store.Load()
	if err != nil {
		log.Fatal("loading snapshot: %v", err)
	}
	if snap == nil {
		fmt.Println("no snapshot recorded yet")
		return
	}
	for target, names := range snap.TargetTransformers {
		fmt.Printf("%s\n", target)
		for _, n := range names {
			fmt.Printf("  <- %s\n", n)
		}
	}
	for _, target := range snap.RawTargets {
		fmt.Printf("%s\n  <- (raw transformer)\n", target)
	}
}

func showAudit(cfg *config.Config, log logging.Logger, target string, limit int) {
	store, err := audit.Open(cfg.AuditPath())
	if err != nil {
		log.Fatal("opening audit database: %v", err)
	}
	defer store.Close()

	entries, err := store.RecentForTarget(target, limit)
	if err != nil {
		log.Fatal("querying audit database: %v", err)
	}
	if len(entries) == 0 {
		fmt.Printf("no audit entries for %s\n", target)
		return
	}
	for _, e := range entries {
		fmt.Printf("%d\t%s\t%s\t%s -> %s\t%s\t%s\n", e.Timestamp, e.SessionID, e.Handler, e.Transformer, e.Target, e.Decision, e.Message)
	}
}
