package handler

import (
	"fmt"
	"sync/atomic"

	"github.com/chazu/classforge/classfile"
)

var syntheticCounter uint64

func nextSyntheticSuffix() uint64 { return atomic.AddUint64(&syntheticCounter, 1) }

// SyntheticRenamer renames synthetic members on the transformer class to
// globally-unique names before any member is copied, avoiding collisions
// when those bodies are later copied into one or more target classes
// (spec.md §4.2 step 3). Renames are recorded in ctx.Idents so MemberCopy
// can fix up internal self-references.
type SyntheticRenamer struct{}

func (r *SyntheticRenamer) Name() string { return "SyntheticRenamer" }

func (r *SyntheticRenamer) Apply(ctx *Context, target, transformer *classfile.ClassNode) Outcome {
	renamed := 0
	for _, m := range transformer.Methods {
		if m.Access&classfile.AccSynthetic == 0 || m.Name == "<init>" || m.Name == "<clinit>" {
			continue
		}
		newName := fmt.Sprintf("%s$synthetic$%d", m.Name, nextSyntheticSuffix())
		ctx.Idents.PutMethod(m.Name, m.Desc, newName)
		renameMethodRefs(transformer, m.Name, m.Desc, newName)
		m.Name = newName
		renamed++
	}
	for _, f := range transformer.Fields {
		if f.Access&classfile.AccSynthetic == 0 {
			continue
		}
		newName := fmt.Sprintf("%s$synthetic$%d", f.Name, nextSyntheticSuffix())
		ctx.Idents.PutField(f.Name, f.Desc, newName)
		renameFieldRefs(transformer, f.Name, f.Desc, newName)
		f.Name = newName
		renamed++
	}
	if renamed == 0 {
		return skipped("no synthetic members")
	}
	return applied()
}

// renameMethodRefs rewrites every self-referential MethodInsn in
// transformer's own bodies that calls (oldName, desc) on transformer
// itself.
func renameMethodRefs(transformer *classfile.ClassNode, oldName, desc, newName string) {
	for _, m := range transformer.Methods {
		m.Instructions.Each(func(n *classfile.InsnNode) {
			if mi, ok := n.Insn.(*classfile.MethodInsn); ok && mi.Owner == transformer.Name && mi.Name == oldName && mi.Desc == desc {
				mi.Name = newName
			}
		})
	}
}

func renameFieldRefs(transformer *classfile.ClassNode, oldName, desc, newName string) {
	for _, m := range transformer.Methods {
		m.Instructions.Each(func(n *classfile.InsnNode) {
			if fi, ok := n.Insn.(*classfile.FieldInsn); ok && fi.Owner == transformer.Name && fi.Name == oldName && fi.Desc == desc {
				fi.Name = newName
			}
		})
	}
}
