package handler

import "github.com/chazu/classforge/classfile"

// CASMPhase selects whether a raw hook runs before any other handler
// (TOP) or after every other handler (BOTTOM) — spec.md §4.2 steps 1
// and 13.
type CASMPhase string

const (
	CASMTop    CASMPhase = "TOP"
	CASMBottom CASMPhase = "BOTTOM"
)

const descCASM = "Lclassforge/annotation/CASM;"

// ASMHookFunc is a raw visitor: arbitrary mutation of target given
// transformer, with no contract beyond "do not violate spec.md §3's
// invariants". The actual bytecode-editing operations it performs are an
// external collaborator's concern (spec.md §1 calls out "raw bytecode
// rewrites" as framework-supported but implementation-defined); this
// core only dispatches to whichever Go function the user registered for
// a given @CASM-annotated transformer method.
type ASMHookFunc func(ctx *Context, target, transformer *classfile.ClassNode) error

var asmHooks = map[string]ASMHookFunc{}

// RegisterASMHook associates a raw hook with a transformer method name so
// that CASM can dispatch to it when it finds a matching @CASM-annotated
// method. Call this before registering the transformer class.
func RegisterASMHook(transformerClass, method string, fn ASMHookFunc) {
	asmHooks[transformerClass+"#"+method] = fn
}

// CASM is the raw pre-/post-pass hook, steps 1 and 13 of spec.md §4.2.
type CASM struct {
	Phase CASMPhase
}

func (c *CASM) Name() string { return "CASM(" + string(c.Phase) + ")" }

func (c *CASM) Apply(ctx *Context, target, transformer *classfile.ClassNode) Outcome {
	ran := false
	for _, m := range transformer.Methods {
		a := findAnnotation(m.Annotations, descCASM)
		if a == nil {
			continue
		}
		phase := CASMPhase(strVal(a, "phase"))
		if phase == "" {
			phase = CASMTop
		}
		if phase != c.Phase {
			continue
		}
		fn, ok := asmHooks[transformer.Name+"#"+m.Name]
		if !ok {
			ctx.Log.Warn("CASM: no hook registered for %s#%s", transformer.Name, m.Name)
			continue
		}
		if err := fn(ctx, target, transformer); err != nil {
			return failed(err)
		}
		ran = true
	}
	if !ran {
		return skipped("no @CASM method for this phase")
	}
	return applied()
}
