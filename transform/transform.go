package transform

import (
	"fmt"

	"github.com/chazu/classforge/classfile"
)

// TransformBytes is the core's entry point in byte form, the
// `transform(name, bytecode) -> bytecode?` contract of spec.md §5/§6:
// given a class name already normalized to internal (slash) form and its
// current bytecode, run every raw transformer then every annotation
// handler registered against it, and return the new bytecode, or nil if
// nothing applied. It never decodes bytes unless something is actually
// registered against name, matching the original's "skip ASM entirely
// when nothing targets this class" fast path.
func (m *Manager) TransformBytes(name string, bytecode []byte) ([]byte, error) {
	raws := m.Registry.RawTransformers(name)
	transformers := m.Registry.Transformers(name)
	if len(raws) == 0 && len(transformers) == 0 {
		return nil, nil
	}
	if m.Codec == nil {
		return nil, fmt.Errorf("transform: %q has registered transformers but no ClassCodec is configured", name)
	}

	class, err := m.Codec.Decode(bytecode)
	if err != nil {
		return nil, &classfile.ParseError{Context: name, Err: err}
	}

	for _, rt := range raws {
		if err := rt.Transform(class); err != nil {
			fault := &HandlerFault{Handler: "raw:" + rt.Name(), Target: name, Err: err}
			switch m.Fail {
			case Continue:
				m.logger().ErrorErr(fault, "continuing after raw transformer fault")
			case Cancel:
				return nil, fault
			case Exit:
				m.logger().Fatal("%v", fault)
				return nil, fault
			}
		}
	}

	_, changed, err := m.TransformClass(name, class)
	if err != nil {
		return nil, err
	}
	if !changed && len(raws) == 0 {
		return nil, nil
	}

	return m.Codec.Encode(class)
}

// Transform implements the instrumentation host's
// ClassFileTransformer-equivalent contract of spec.md §6: `transform(loader,
// name, classBeingRedefined, protectionDomain, bytes) -> bytes?`. It never
// returns an error to the host (spec.md §7: "the top-level load-time
// callback never throws: all errors are either logged+null or
// logged+exit"); className is accepted in slash form (the JVM's own
// convention) and used as-is, since every name this core stores and
// matches against is already in that form.
//
// loader, classBeingRedefined, and protectionDomain are accepted only to
// match the host contract's shape; the core does not consult them.
func (m *Manager) Transform(loader interface{}, className string, classBeingRedefined interface{}, protectionDomain interface{}, bytecode []byte) []byte {
	if className == "" {
		return nil
	}
	if _, inflight := m.inflight.LoadOrStore(className, struct{}{}); inflight {
		// Re-entrant call for a class currently being transformed (spec.md
		// §9 "Hotswap re-entrancy"): back off instead of recursing.
		return nil
	}
	defer m.inflight.Delete(className)

	if m.Hotswap {
		if stub, handled := m.handleHotswapLoad(className, bytecode); handled {
			return stub
		}
	}

	out, err := m.TransformBytes(className, bytecode)
	if err != nil {
		m.logger().ErrorErr(err, "failed to transform class %q", className)
		if m.Fail == Exit {
			m.logger().Fatal("exiting after fatal transform error on %q", className)
		}
		return nil
	}
	return out
}
