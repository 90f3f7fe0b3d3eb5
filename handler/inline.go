package handler

import "github.com/chazu/classforge/classfile"

// Inline implements spec.md §4.2 step 10: a transformer method marked
// @CInline never keeps its own call site — every existing invocation of a
// method with its name and descriptor on the target class is replaced by
// a fresh, slot-shifted copy of its instruction list, with every RETURN
// converted to a jump to a single shared exit point so the caller's
// control flow merges correctly around the inlined body. ATHROW
// instructions are kept as they are, so a thrown exception still leaves
// the inlined body.
//
// This core only supports inlining a method with no receiver: @CInline
// methods are expected to be static helpers, matching how the directive
// is used in practice (a cheap constant-folding or bounds-check helper).
// A non-static @CInline method is rejected with a ShapeError.
type Inline struct{}

func (h *Inline) Name() string { return "Inline" }

func (h *Inline) Apply(ctx *Context, targetClass, transformer *classfile.ClassNode) Outcome {
	inlined := 0
	var remaining []*classfile.MethodNode
	for _, m := range transformer.Methods {
		if findAnnotation(m.Annotations, descInline) == nil {
			remaining = append(remaining, m)
			continue
		}
		if !m.IsStatic() {
			return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name,
				Message: "@CInline method must be static",
				Hint:    "make the inlined helper a static method"})
		}
		inlined += inlineCallSites(targetClass, m)
	}
	transformer.Methods = remaining
	if inlined == 0 {
		return skipped("no @CInline methods with call sites")
	}
	return applied()
}

func inlineCallSites(targetClass *classfile.ClassNode, m *classfile.MethodNode) int {
	count := 0
	for _, caller := range targetClass.Methods {
		if caller == m {
			continue
		}
		for _, n := range caller.Instructions.Slice() {
			mi, ok := n.Insn.(*classfile.MethodInsn)
			if !ok || mi.Owner != targetClass.Name || mi.Name != m.Name || mi.Desc != m.Desc {
				continue
			}
			inlineAt(caller, n, m)
			count++
		}
	}
	return count
}

// inlineAt splices a fresh, slot-shifted copy of m's body in place of the
// call instruction node inside caller.
func inlineAt(caller *classfile.MethodNode, node *classfile.InsnNode, m *classfile.MethodNode) {
	base := caller.MaxLocals
	clone := classfile.CloneMethod(m)
	classfile.BumpSlotsAtOrAbove(clone, 0, base)

	endLabel := classfile.NewLabel("inline$end")
	for _, cn := range clone.Instructions.Slice() {
		op := cn.Insn.Opcode()
		if classfile.IsReturn(op) || op == classfile.OpAThrow {
			if op == classfile.OpAThrow {
				continue // a thrown exception still propagates normally
			}
			clone.Instructions.Replace(cn, &classfile.JumpInsn{Op: classfile.OpGoto, Target: endLabel})
		}
	}
	clone.Instructions.Append(endLabel)

	argTypes, _ := classfile.ArgumentTypes(m.Desc)
	slot := base
	storeOps := make([]*classfile.VarInsn, len(argTypes))
	for i, t := range argTypes {
		storeOps[i] = &classfile.VarInsn{Op: classfile.StoreOpcodeFor(t), Slot: slot}
		slot += classfile.Width(t)
	}
	il := caller.Instructions
	for i := len(storeOps) - 1; i >= 0; i-- {
		il.InsertBefore(node, storeOps[i])
	}
	il.InsertListBefore(node, clone.Instructions)
	il.Remove(node)

	if clone.MaxLocals > caller.MaxLocals {
		caller.MaxLocals = clone.MaxLocals
	}
	caller.MaxStack += m.MaxStack
	caller.TryCatch = append(caller.TryCatch, clone.TryCatch...)
}
