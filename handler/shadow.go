package handler

import "github.com/chazu/classforge/classfile"

// Shadow implements spec.md §4.2 step 4: for each transformer field or
// method annotated @CShadow, record a transformerMember -> targetMember
// identity mapping (the member already has the target's name+desc after
// the remap pass that ran before any handler saw this class), then strip
// it from the transformer so MemberCopy never copies it — only
// references to it, rewritten via ctx.Idents, survive into the target.
type Shadow struct{}

func (s *Shadow) Name() string { return "Shadow" }

func (s *Shadow) Apply(ctx *Context, target, transformer *classfile.ClassNode) Outcome {
	shadowed := 0

	var keepFields []*classfile.FieldNode
	for _, f := range transformer.Fields {
		if findAnnotation(f.Annotations, descShadow) == nil {
			keepFields = append(keepFields, f)
			continue
		}
		if target.FindField(f.Name, f.Desc) == nil {
			return failed(&ShapeError{
				Transformer: transformer.Name, Method: f.Name,
				Message: "shadow field has no matching target field",
				Hint:    "check the field's name and descriptor against the target class",
			})
		}
		ctx.Idents.PutField(f.Name, f.Desc, f.Name)
		shadowed++
	}
	transformer.Fields = keepFields

	var keepMethods []*classfile.MethodNode
	for _, m := range transformer.Methods {
		if findAnnotation(m.Annotations, descShadow) == nil {
			keepMethods = append(keepMethods, m)
			continue
		}
		if target.FindMethod(m.Name, m.Desc) == nil {
			return failed(&ShapeError{
				Transformer: transformer.Name, Method: m.Name,
				Message: "shadow method has no matching target method",
				Hint:    "check the method's name and descriptor against the target class",
			})
		}
		ctx.Idents.PutMethod(m.Name, m.Desc, m.Name)
		shadowed++
	}
	transformer.Methods = keepMethods

	if shadowed == 0 {
		return skipped("no @CShadow members")
	}
	return applied()
}
