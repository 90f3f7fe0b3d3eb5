package classfile

// FreeSlot returns the lowest local-variable slot, scanning up from 0,
// whose width consecutive indices are not claimed by the receiver or any
// declared parameter, any entry of the local-variable table, any VarInsn
// in the body, or reserved (used when a handler allocates several fresh
// slots in one pass and must not hand out the same slot twice before
// MaxLocals/LocalVars are updated to reflect earlier allocations).
// MaxLocals itself is not consulted.
//
// Slot width matters: a slot holding a long or double value occupies its
// index and the following one (JVMS §2.6.1), so scanning must skip the
// occupied companion slot too.
func FreeSlot(m *MethodNode, width int, reserved ...int) int {
	occupied := occupiedSlots(m)
	for _, r := range reserved {
		occupied[r] = true
	}
	for slot := 0; ; slot++ {
		free := true
		for w := 0; w < width; w++ {
			if occupied[slot+w] {
				free = false
				break
			}
		}
		if free {
			return slot
		}
	}
}

// ClaimSlot allocates a fresh local-variable slot via FreeSlot and raises
// m.MaxLocals to cover it immediately, so a handler that hands out new
// slots can never leave MaxLocals understating the method's actual frame
// size (JVMS §4.7.3 requires it cover every slot the Code attribute's
// instructions touch).
func ClaimSlot(m *MethodNode, width int, reserved ...int) int {
	slot := FreeSlot(m, width, reserved...)
	if slot+width > m.MaxLocals {
		m.MaxLocals = slot + width
	}
	return slot
}

func occupiedSlots(m *MethodNode) map[int]bool {
	occ := make(map[int]bool)
	argTypes, _ := ArgumentTypes(m.Desc)
	slot := 0
	if !m.IsStatic() {
		occ[0] = true
		slot = 1
	}
	for _, t := range argTypes {
		w := Width(t)
		for i := 0; i < w; i++ {
			occ[slot+i] = true
		}
		slot += w
	}
	for _, lv := range m.LocalVars {
		w := Width(lv.Desc)
		for i := 0; i < w; i++ {
			occ[lv.Index+i] = true
		}
	}
	// Any VarInsn referencing a slot beyond the declared locals (the
	// compiler emitted it without a LocalVariableTable entry, e.g. a
	// synthetic temp) also claims that slot.
	m.Instructions.Each(func(n *InsnNode) {
		if v, ok := n.Insn.(*VarInsn); ok {
			occ[v.Slot] = true
		}
	})
	return occ
}

// BumpSlotsAtOrAbove rewrites every VarInsn in m that references a slot
// ≥ from, adding delta to its slot number. Used when a modifiable-local
// @Inject rewrites a transformer method's descriptor to take a trailing
// Object[] parameter: every VarInsn for a slot at or above the new
// array's slot must shift up by delta (spec.md §4.3, "All VarInsn in the
// transformer that reference slots ≥ the new array's slot are bumped up
// by one").
func BumpSlotsAtOrAbove(m *MethodNode, from, delta int) {
	m.Instructions.Each(func(n *InsnNode) {
		if v, ok := n.Insn.(*VarInsn); ok && v.Slot >= from {
			v.Slot += delta
		}
	})
	for _, lv := range m.LocalVars {
		if lv.Index >= from {
			lv.Index += delta
		}
	}
	m.MaxLocals += delta
}
