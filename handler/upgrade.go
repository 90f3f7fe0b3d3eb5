package handler

import (
	"fmt"

	"github.com/chazu/classforge/classfile"
)

// Upgrade implements spec.md §4.2 step 11: a transformer method marked
// @CUpgrade moves wholesale into a target method of the same name and
// descriptor, discarding the target's original body entirely — unlike
// Override, no alias is kept, since an upgrade declares the original
// implementation obsolete rather than something later code might want to
// call back into.
type Upgrade struct{}

func (u *Upgrade) Name() string { return "Upgrade" }

func (u *Upgrade) Apply(ctx *Context, targetClass, transformer *classfile.ClassNode) Outcome {
	upgraded := 0
	var remaining []*classfile.MethodNode
	for _, m := range transformer.Methods {
		if findAnnotation(m.Annotations, descUpgrade) == nil {
			remaining = append(remaining, m)
			continue
		}
		existing := targetClass.FindMethod(m.Name, m.Desc)
		if existing == nil {
			return failed(&ShapeError{
				Transformer: transformer.Name, Method: m.Name,
				Message: "no matching target method to upgrade",
				Hint:    "check the method's name and descriptor against the target class",
			})
		}
		if existing.IsStatic() != m.IsStatic() {
			return failed(&ShapeError{
				Transformer: transformer.Name, Method: m.Name,
				Message: "staticness of upgrade does not match target method",
				Hint:    fmt.Sprintf("mark the transformer method %s", staticHint(existing.IsStatic())),
			})
		}
		existing.Instructions = m.Instructions
		existing.TryCatch = m.TryCatch
		existing.LocalVars = m.LocalVars
		existing.MaxLocals = m.MaxLocals
		existing.MaxStack = m.MaxStack
		upgraded++
	}
	transformer.Methods = remaining
	if upgraded == 0 {
		return skipped("no @CUpgrade methods")
	}
	return applied()
}
