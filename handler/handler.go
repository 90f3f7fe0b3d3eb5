// Package handler implements the annotation handlers of spec.md §4.2: one
// handler per directive kind, run in the fixed order CASM(TOP) ->
// InnerClassOpener -> SyntheticRenamer -> Shadow -> Override -> WrapCatch
// -> Inject -> Redirect -> ModifyConstant -> Inline -> Upgrade ->
// MemberCopy -> CASM(BOTTOM). Each handler mutates the target class in
// place given a transformer class; handlers are stateless functions, not
// objects with back-pointers, per spec.md §9's "Cyclic handler/registry
// graph" note.
package handler

import (
	"fmt"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/remap"
)

// Result classifies a handler's outcome for one transformer-on-target
// pass, the tagged result spec.md §9 asks for instead of exceptions.
type Result int

const (
	Applied Result = iota
	Skipped
	Failed
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-handler, per-transformer result the pipeline
// consumes to decide whether to keep going (CONTINUE), abort the class
// (CANCEL), or exit (EXIT) — spec.md §7.
type Outcome struct {
	Result Result
	Reason string
	Err    error
}

func applied() Outcome                { return Outcome{Result: Applied} }
func skipped(reason string) Outcome   { return Outcome{Result: Skipped, Reason: reason} }
func failed(err error) Outcome        { return Outcome{Result: Failed, Err: err} }

// Logger is the minimal sink a handler needs; it is satisfied by
// logging.Logger without this package importing it, keeping handler
// decoupled from the ambient logging stack.
type Logger interface {
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Context carries everything a handler needs beyond the two class nodes:
// the remapper already built against this target (classes registered by
// name, methods/fields resolved against the target's current
// identifiers), the shared Callback class template, the identifier map
// accumulated by Shadow/SyntheticRenamer/Override for MemberCopy to
// rewrite internal references against, and a logger. The manager
// constructs one Context per (target, transformer) pair and threads it
// through all thirteen steps — no handler holds state across calls
// (spec.md §9 "Global state").
type Context struct {
	Remapper *remap.Remapper
	Callback *CallbackClass
	Idents   *IdentMap
	Log      Logger
}

// IdentMap accumulates transformer-member -> target-member renames
// discovered by earlier handlers (Shadow, SyntheticRenamer, Override) so
// that MemberCopy can rewrite internal self-references when it copies
// whatever the transformer class has left (spec.md §4.2 step 12).
type IdentMap struct {
	methods map[string]string // "name desc" -> target name
	fields  map[string]string // "name:desc" -> target name
}

func NewIdentMap() *IdentMap {
	return &IdentMap{methods: make(map[string]string), fields: make(map[string]string)}
}

func (m *IdentMap) PutMethod(name, desc, targetName string) { m.methods[name+" "+desc] = targetName }
func (m *IdentMap) PutField(name, desc, targetName string)  { m.fields[name+":"+desc] = targetName }

func (m *IdentMap) Method(name, desc string) (string, bool) {
	v, ok := m.methods[name+" "+desc]
	return v, ok
}

func (m *IdentMap) Field(name, desc string) (string, bool) {
	v, ok := m.fields[name+":"+desc]
	return v, ok
}

// ShapeError is TransformerShapeError from spec.md §7: a signature,
// staticness, or return-type mismatch in a transformer method, carrying
// an actionable hint per spec.md §4.2's "suggested fix".
type ShapeError struct {
	Transformer string
	Method      string
	Message     string
	Hint        string
}

func (e *ShapeError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("handler: %s.%s: %s (hint: %s)", e.Transformer, e.Method, e.Message, e.Hint)
	}
	return fmt.Sprintf("handler: %s.%s: %s", e.Transformer, e.Method, e.Message)
}

// Handler is one annotation-directive processor. Manager runs every
// registered Handler, in the fixed order, once per (target, transformer)
// pair.
type Handler interface {
	Name() string
	Apply(ctx *Context, target *classfile.ClassNode, transformer *classfile.ClassNode) Outcome
}

// Ordered returns the thirteen built-in handlers (CASM is split into its
// TOP and BOTTOM instances) in the fixed order spec.md §4.2 mandates.
func Ordered() []Handler {
	return []Handler{
		&CASM{Phase: CASMTop},
		&InnerClassOpener{},
		&SyntheticRenamer{},
		&Shadow{},
		&Override{},
		&WrapCatch{},
		&Inject{},
		&Redirect{},
		&ModifyConstant{},
		&Inline{},
		&Upgrade{},
		&MemberCopy{},
		&CASM{Phase: CASMBottom},
	}
}
