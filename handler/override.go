package handler

import (
	"fmt"

	"github.com/chazu/classforge/classfile"
)

// Override implements spec.md §4.2 step 5: copies a transformer method
// over a matching target method (same name+descriptor after remap),
// preserving the original under a renamed alias so the transformer body
// can still invoke it as a super-call.
type Override struct{}

func (o *Override) Name() string { return "Override" }

func (o *Override) Apply(ctx *Context, target, transformer *classfile.ClassNode) Outcome {
	overridden := 0
	var remaining []*classfile.MethodNode
	for _, m := range transformer.Methods {
		if findAnnotation(m.Annotations, descOverride) == nil {
			remaining = append(remaining, m)
			continue
		}
		existing := target.FindMethod(m.Name, m.Desc)
		if existing == nil {
			return failed(&ShapeError{
				Transformer: transformer.Name, Method: m.Name,
				Message: "no matching target method to override",
				Hint:    "check the method's name and descriptor against the target class",
			})
		}
		if existing.IsStatic() != m.IsStatic() {
			return failed(&ShapeError{
				Transformer: transformer.Name, Method: m.Name,
				Message: "staticness of override does not match target method",
				Hint:    fmt.Sprintf("mark the transformer method %s", staticHint(existing.IsStatic())),
			})
		}

		aliasName := fmt.Sprintf("%s$original$%d", m.Name, nextSyntheticSuffix())
		aliased := classfile.CloneMethod(existing)
		aliased.Name = aliasName
		aliased.Access |= classfile.AccSynthetic
		target.Methods = append(target.Methods, aliased)
		ctx.Idents.PutMethod(m.Name, m.Desc, aliasName)

		existing.Instructions = m.Instructions
		existing.TryCatch = m.TryCatch
		existing.LocalVars = m.LocalVars
		existing.MaxLocals = m.MaxLocals
		existing.MaxStack = m.MaxStack
		overridden++
	}
	transformer.Methods = remaining
	if overridden == 0 {
		return skipped("no @COverride methods")
	}
	return applied()
}

func staticHint(wantStatic bool) string {
	if wantStatic {
		return "static"
	}
	return "non-static"
}
