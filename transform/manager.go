// Package transform implements the transformation pipeline of spec.md
// §5/§6: the top-level synchronous transform(name, bytes) entry point, the
// per-(target, transformer) handler pipeline, wildcard transformer
// registration, and hotswap re-registration — built the way the teacher
// builds its own singleton-but-not-required service objects (see
// server/server.go's Server, which likewise wraps a *vm.ContentStore and a
// logger and exposes synchronous request handlers without spawning
// goroutines of its own).
package transform

import (
	"fmt"
	"sync"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/handler"
	"github.com/chazu/classforge/registry"
	"github.com/chazu/classforge/remap"
)

// FailStrategy is the process-wide decision spec.md §6 describes for what
// happens when a handler or remap pass faults.
type FailStrategy int

const (
	Continue FailStrategy = iota
	Cancel
	Exit
)

func (s FailStrategy) String() string {
	switch s {
	case Continue:
		return "continue"
	case Cancel:
		return "cancel"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// ParseFailStrategy reads the config-file spelling ("continue", "cancel",
// "exit") used by classforge.toml's [framework] fail-strategy key.
func ParseFailStrategy(s string) (FailStrategy, error) {
	switch s {
	case "", "continue":
		return Continue, nil
	case "cancel":
		return Cancel, nil
	case "exit":
		return Exit, nil
	default:
		return Continue, fmt.Errorf("transform: unknown fail strategy %q", s)
	}
}

// Logger is the four-level logger contract of spec.md §6, extended with an
// error-carrying variant for each of Warn/Error the way the teacher's own
// logging call sites attach an error value to a formatted message.
// logging.Logger (built on commonlog) implements this without this
// package importing logging, the same decoupling handler.Logger uses.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})
	WarnErr(err error, format string, args ...interface{})
	ErrorErr(err error, format string, args ...interface{})
}

// ClassProvider is the capability spec.md §6 calls out: getClass(name) and
// getAllClasses(), the latter returning lazily-fetched bytes per entry so
// that enumerating a provider's keys for wildcard matching never pays the
// cost of decoding every class in it.
type ClassProvider interface {
	GetClass(name string) ([]byte, error)
	GetAllClasses() (map[string]func() ([]byte, error), error)
}

// ClassCodec is the seam for the external bytecode reader/writer library
// spec.md §1 says is "assumed available"; the core never parses or emits
// raw class bytes itself, it only asks a codec to do so. A host embeds
// this package with a concrete codec wired to whatever ASM-equivalent
// library it has on its classpath.
type ClassCodec interface {
	Decode(bytecode []byte) (*classfile.ClassNode, error)
	Encode(class *classfile.ClassNode) ([]byte, error)
}

// Redefiner is the instrumentation host's redefinition capability, used
// only by hotswap (spec.md §6 "Hotswap").
type Redefiner interface {
	LoadedClassNames() []string
	Redefine(name string, bytecode []byte) error
}

// AuditSink records a fault for later "why did my mod stop loading"
// inspection (§10.2 of SPEC_FULL.md). audit.Store satisfies this
// structurally without either package importing the other.
type AuditSink interface {
	Record(sessionID, handlerName, transformerName, targetName, message, decision string)
}

// HandlerFault is any unexpected failure surfaced by a handler, carrying
// enough identity to log and audit (spec.md §7).
type HandlerFault struct {
	Handler     string
	Transformer string
	Target      string
	Err         error
}

func (e *HandlerFault) Error() string {
	return fmt.Sprintf("transform: handler %s faulted on %s -> %s: %v", e.Handler, e.Transformer, e.Target, e.Err)
}

func (e *HandlerFault) Unwrap() error { return e.Err }

// nopLogger discards everything; used when a Manager is built without an
// explicit Logger so call sites never need a nil check.
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})             {}
func (nopLogger) Warn(string, ...interface{})             {}
func (nopLogger) Error(string, ...interface{})            {}
func (nopLogger) Fatal(string, ...interface{})            {}
func (nopLogger) WarnErr(error, string, ...interface{})   {}
func (nopLogger) ErrorErr(error, string, ...interface{})  {}

// Manager is the transformer manager of spec.md §2: it owns the registry,
// runs the fixed 13-step handler pipeline per (target, transformer) pair,
// and exposes the instrumentation-host contract. Per spec.md §9 "Global
// state", nothing about Manager requires it to be a singleton — callers
// are free to construct more than one for isolated test fixtures — but it
// is safe to share one across goroutines, exactly like vm.ContentStore.
type Manager struct {
	Registry *registry.Registry
	Handlers []handler.Handler
	Codec    ClassCodec
	Provider ClassProvider
	Redefine Redefiner
	Log      Logger
	Audit    AuditSink
	Fail     FailStrategy
	Hotswap  bool

	// Remapper is the mapping engine the host populates (spec.md §1: the
	// mapping file parser is out of scope, "provide a populated
	// remapper"). It is shared across every transformation; its own
	// internal lock makes that safe. A Manager built via New starts with
	// an empty one, which maps every identifier to itself — correct for
	// a deobfuscated target.
	Remapper *remap.Remapper

	// inflight guards hotswap re-entrancy (spec.md §9 "Hotswap
	// re-entrancy"): a transformer class being loaded may itself trigger
	// a nested call to Transform for the same name before the outer call
	// returns. A set, not a counter, since the inner call must simply
	// back off rather than recurse.
	inflight sync.Map // map[string]struct{}

	// explicit records every class name that was registered directly
	// (bare name or AddTransformerClass), so a later wildcard expansion
	// skips it per spec.md §11's supplemented de-duplication rule.
	explicit sync.Map // map[string]struct{}

	// stubs holds the empty-body stub bytecode handed back to the host
	// for a transformer's own class file under hotswap (spec.md §6:
	// "The class file returned to the host for the transformer itself is
	// an empty stub body").
	stubs sync.Map // map[string][]byte
}

// New creates a Manager with the default handler order and a Continue
// fail strategy. reg may be shared with other Managers; it is never
// copied.
func New(reg *registry.Registry) *Manager {
	return &Manager{
		Registry: reg,
		Handlers: handler.Ordered(),
		Remapper: remap.New(),
		Fail:     Continue,
		Log:      nopLogger{},
	}
}

func (m *Manager) logger() Logger {
	if m.Log == nil {
		return nopLogger{}
	}
	return m.Log
}

// newContext builds a fresh handler.Context for one target class, sharing
// m's Remapper and wrapping m's logger so it satisfies handler.Logger (a
// strict subset of Logger) without this package importing handler's
// internals. Idents starts empty per pair: it only accumulates renames
// discovered while processing this one transformer against this one
// target (spec.md §9 "Global state" bars carrying that across pairs).
func (m *Manager) newContext(callback *handler.CallbackClass) *handler.Context {
	return &handler.Context{
		Remapper: m.Remapper,
		Callback: callback,
		Idents:   handler.NewIdentMap(),
		Log:      m.logger(),
	}
}
