package classfile

// InsnNode is one link in a method body's doubly linked instruction list.
type InsnNode struct {
	Insn       Instruction
	prev, next *InsnNode
}

func (n *InsnNode) Prev() *InsnNode { return n.prev }
func (n *InsnNode) Next() *InsnNode { return n.next }

// InsnList is the doubly linked instruction list backing a MethodNode
// body, mirroring ASM's InsnList / MethodNode.instructions.
type InsnList struct {
	first, last *InsnNode
	size        int
}

func (l *InsnList) Size() int        { return l.size }
func (l *InsnList) First() *InsnNode { return l.first }
func (l *InsnList) Last() *InsnNode  { return l.last }

// Append adds i at the end of the list and returns its node.
func (l *InsnList) Append(i Instruction) *InsnNode {
	n := &InsnNode{Insn: i}
	if l.last == nil {
		l.first, l.last = n, n
	} else {
		n.prev = l.last
		l.last.next = n
		l.last = n
	}
	l.size++
	return n
}

// InsertBefore inserts i immediately before mark and returns its node.
// mark must belong to l.
func (l *InsnList) InsertBefore(mark *InsnNode, i Instruction) *InsnNode {
	n := &InsnNode{Insn: i, prev: mark.prev, next: mark}
	if mark.prev != nil {
		mark.prev.next = n
	} else {
		l.first = n
	}
	mark.prev = n
	l.size++
	return n
}

// InsertAfter inserts i immediately after mark and returns its node.
func (l *InsnList) InsertAfter(mark *InsnNode, i Instruction) *InsnNode {
	n := &InsnNode{Insn: i, prev: mark, next: mark.next}
	if mark.next != nil {
		mark.next.prev = n
	} else {
		l.last = n
	}
	mark.next = n
	l.size++
	return n
}

// InsertListBefore inserts every instruction of other, in order,
// immediately before mark.
func (l *InsnList) InsertListBefore(mark *InsnNode, other *InsnList) {
	at := mark
	for n := other.first; n != nil; n = n.next {
		l.InsertBefore(at, n.Insn)
	}
}

// InsertListAfter inserts every instruction of other, in order,
// immediately after mark.
func (l *InsnList) InsertListAfter(mark *InsnNode, other *InsnList) {
	at := mark
	for n := other.first; n != nil; n = n.next {
		at = l.InsertAfter(at, n.Insn)
	}
}

// Remove unlinks n from l. n must belong to l.
func (l *InsnList) Remove(n *InsnNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.last = n.prev
	}
	n.prev, n.next = nil, nil
	l.size--
}

// RemoveRange removes every node from from through to, inclusive. from and
// to must belong to l, with from at or before to in list order.
func (l *InsnList) RemoveRange(from, to *InsnNode) {
	n := from
	for n != nil {
		next := n.next
		l.Remove(n)
		if n == to {
			break
		}
		n = next
	}
}

// Replace removes old and inserts replacement (in order) in its place.
func (l *InsnList) Replace(old *InsnNode, replacement ...Instruction) {
	at := old
	for _, i := range replacement {
		at = l.InsertAfter(at, i)
	}
	l.Remove(old)
}

// Each calls fn for every node in order. fn may remove the current node or
// nodes before it without disrupting iteration.
func (l *InsnList) Each(fn func(n *InsnNode)) {
	n := l.first
	for n != nil {
		next := n.next
		fn(n)
		n = next
	}
}

// Slice materializes the list as a slice, in order. Used by resolvers and
// tests where random access or a fixed snapshot is more convenient than
// list traversal.
func (l *InsnList) Slice() []*InsnNode {
	out := make([]*InsnNode, 0, l.size)
	for n := l.first; n != nil; n = n.next {
		out = append(out, n)
	}
	return out
}

// Clone deep-copies the list, producing fresh InsnNodes and (via the shared
// labels map) fresh LabelInsn targets so that jumps inside the clone point
// within the clone. CloneMethod passes the same labels map to
// cloneTryCatch and cloneLocalVar so all three stay consistent.
func (l *InsnList) Clone(labels map[*LabelInsn]*LabelInsn) *InsnList {
	out := &InsnList{}
	for n := l.first; n != nil; n = n.next {
		out.Append(Clone(n.Insn, labels))
	}
	return out
}
