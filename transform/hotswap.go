package transform

import (
	"github.com/google/uuid"

	"github.com/chazu/classforge/classfile"
)

// hotswapStub is the empty-body class this core hands back to the host
// for a transformer's own class file under hotswap (spec.md §6: "The
// class file returned to the host for the transformer itself is an empty
// stub body — the real bytecode lives only as a registry entry").
func hotswapStub(name, superName string) *classfile.ClassNode {
	stub := classfile.NewClassNode(name, superName)
	stub.Access = classfile.AccPublic
	ctor := classfile.NewMethodNode(classfile.AccPublic, "<init>", "()V")
	il := ctor.Instructions
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.MethodInsn{Op: classfile.OpInvokeSpecial, Owner: superName, Name: "<init>", Desc: "()V"})
	il.Append(&classfile.Insn{Op: classfile.OpReturn})
	ctor.MaxLocals = 1
	stub.Methods = append(stub.Methods, ctor)
	return stub
}

// handleHotswapLoad intercepts the load of a class that is itself a
// registered transformer (spec.md §6 "Hotswap"): re-parse it, re-run
// registration to compute its (possibly changed) target set, redefine
// every already-loaded target class through m.Redefine, and hand the host
// back an empty stub for the transformer's own bytecode. The second
// return value is false for any class that isn't a registered
// transformer, telling the caller to fall through to ordinary
// TransformBytes handling.
func (m *Manager) handleHotswapLoad(className string, bytecode []byte) ([]byte, bool) {
	if !m.isRegisteredTransformer(className) {
		return nil, false
	}
	sessionID := uuid.New()
	log := m.logger()

	if m.Codec == nil {
		log.Error("hotswap %s: %s: no ClassCodec configured", sessionID, className)
		m.audit(sessionID.String(), "hotswap", className, className, "no ClassCodec configured", "cancel")
		return []byte{1}, true
	}
	class, err := m.Codec.Decode(bytecode)
	if err != nil {
		log.ErrorErr(err, "hotswap %s: failed to decode transformer %q", sessionID, className)
		m.audit(sessionID.String(), "hotswap", className, className, err.Error(), "cancel")
		return []byte{1}, true
	}

	targets, err := m.AddTransformerClass(class)
	if err != nil {
		log.ErrorErr(err, "hotswap %s: failed to re-register transformer %q", sessionID, className)
		m.audit(sessionID.String(), "hotswap", className, className, err.Error(), "cancel")
		return []byte{1}, true
	}
	log.Info("hotswap %s: transformer %q now targets %v", sessionID, className, targets)

	if m.Redefine != nil {
		m.redefineLoaded(sessionID.String(), targets)
	}

	stub, ok := m.stubs.Load(className)
	if !ok {
		s := hotswapStub(className, class.SuperName)
		out, encErr := m.Codec.Encode(s)
		if encErr != nil {
			log.ErrorErr(encErr, "hotswap %s: failed to encode stub for %q", sessionID, className)
			return []byte{1}, true
		}
		m.stubs.Store(className, out)
		stub = out
	}
	return stub.([]byte), true
}

// isRegisteredTransformer reports whether className was registered, as a
// transformer, through AddTransformerClass/AddTransformer (bare or
// wildcard).
func (m *Manager) isRegisteredTransformer(className string) bool {
	return m.Registry.IsRegisteredTransformerName(className)
}

// redefineLoaded retransforms every already-loaded class in targets
// through m.Redefine, skipping ones the host hasn't loaded.
func (m *Manager) redefineLoaded(sessionID string, targets []string) {
	loaded := make(map[string]bool)
	for _, n := range m.Redefine.LoadedClassNames() {
		loaded[n] = true
	}
	for _, t := range targets {
		if !loaded[t] {
			continue
		}
		bytecode, err := m.Provider.GetClass(t)
		if err != nil {
			m.logger().WarnErr(err, "hotswap %s: cannot fetch current bytecode for %q", sessionID, t)
			continue
		}
		newBytecode, err := m.TransformBytes(t, bytecode)
		if err != nil {
			m.logger().ErrorErr(err, "hotswap %s: failed to retransform %q", sessionID, t)
			m.audit(sessionID, "hotswap", "", t, err.Error(), "continue")
			continue
		}
		if newBytecode == nil {
			continue
		}
		if err := m.Redefine.Redefine(t, newBytecode); err != nil {
			m.logger().ErrorErr(err, "hotswap %s: failed to redefine %q", sessionID, t)
			m.audit(sessionID, "hotswap", "", t, err.Error(), "continue")
		}
	}
}
