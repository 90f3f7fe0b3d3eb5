// Package audit records handler faults and aborted transformer-on-target
// pairs to a local SQLite database, the durable "why did my mod stop
// loading" trail spec.md §7 asks a HandlerFault to carry (transformer
// name, target class name, handler identity) without requiring the
// ambient logger's sink to be attached.
//
// Grounded on lib/runtime/persistence.go's database/sql + "create table if
// needed" + busy-timeout shape, using modernc.org/sqlite's pure-Go driver
// in place of the teacher's cgo mattn/go-sqlite3 (§10.4 of SPEC_FULL.md).
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var stderrFallback = os.Stderr

// Decision records which fail-strategy outcome was taken for a fault.
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionCancel   Decision = "cancel"
	DecisionExit     Decision = "exit"
)

// Entry is one audit record: a fault, the identity that produced it, and
// the decision the fail strategy made about it.
type Entry struct {
	ID          int64
	Timestamp   int64 // unix seconds, stamped by the caller
	SessionID   string
	Handler     string
	Transformer string
	Target      string
	Message     string
	Decision    Decision
}

// Store is a SQLite-backed audit log.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the audit database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS faults (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		handler TEXT NOT NULL,
		transformer TEXT NOT NULL,
		target TEXT NOT NULL,
		message TEXT NOT NULL,
		decision TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts one fault row, stamping the current time. Its signature
// matches transform.AuditSink structurally, so a *Store can be assigned
// directly to Manager.Audit without either package importing the other.
func (s *Store) Record(sessionID, handlerName, transformerName, targetName, message, decision string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO faults (timestamp, session_id, handler, transformer, target, message, decision)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(), sessionID, handlerName, transformerName, targetName, message, decision,
	)
	if err != nil {
		// Audit is diagnostics, not a correctness path; a failed write is
		// written to standard error rather than propagated, since
		// propagating it would give an audit outage the power to abort a
		// transformation that would otherwise have succeeded.
		fmt.Fprintf(stderrFallback, "audit: recording fault: %v\n", err)
	}
}

// RecentForTarget returns up to limit of the most recent entries recorded
// against target, newest first — the query a "why did my mod stop
// loading" debugging session runs.
func (s *Store) RecentForTarget(target string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, session_id, handler, transformer, target, message, decision
		 FROM faults WHERE target = ? ORDER BY id DESC LIMIT ?`,
		target, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: querying by target: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var decision string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.SessionID, &e.Handler, &e.Transformer, &e.Target, &e.Message, &decision); err != nil {
			return nil, fmt.Errorf("audit: scanning fault: %w", err)
		}
		e.Decision = Decision(decision)
		out = append(out, e)
	}
	return out, rows.Err()
}
