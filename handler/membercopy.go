package handler

import "github.com/chazu/classforge/classfile"

// MemberCopy implements spec.md §4.2 step 12: copies every transformer
// field and method still left on the transformer class (after Shadow,
// Override, WrapCatch, Inject, Redirect, ModifyConstant, Inline, and
// Upgrade have each consumed and removed what they handle) into the
// target, after rewriting internal self-references through ctx.Idents so
// a copied method that used to call a shadowed or renamed member now
// calls the identifier that member actually resolved to.
type MemberCopy struct{}

func (c *MemberCopy) Name() string { return "MemberCopy" }

func (c *MemberCopy) Apply(ctx *Context, targetClass, transformer *classfile.ClassNode) Outcome {
	if len(transformer.Fields) == 0 && len(transformer.Methods) == 0 {
		return skipped("no members left to copy")
	}

	for _, f := range transformer.Fields {
		targetClass.Fields = append(targetClass.Fields, f)
	}
	for _, m := range transformer.Methods {
		rewriteSelfReferences(ctx, targetClass, transformer, m)
		targetClass.Methods = append(targetClass.Methods, m)
	}
	transformer.Fields = nil
	transformer.Methods = nil
	return applied()
}

// rewriteSelfReferences retargets every instruction in m that calls or
// accesses a transformer.* member by its original name to whatever
// target identifier that member was ultimately mapped to (spec.md §4.4's
// identifier map, populated by Shadow/SyntheticRenamer/Override).
func rewriteSelfReferences(ctx *Context, targetClass, transformer *classfile.ClassNode, m *classfile.MethodNode) {
	m.Instructions.Each(func(n *classfile.InsnNode) {
		switch insn := n.Insn.(type) {
		case *classfile.MethodInsn:
			if insn.Owner != transformer.Name {
				return
			}
			if mapped, ok := ctx.Idents.Method(insn.Name, insn.Desc); ok {
				insn.Name = mapped
			}
			insn.Owner = targetClass.Name
		case *classfile.FieldInsn:
			if insn.Owner != transformer.Name {
				return
			}
			if mapped, ok := ctx.Idents.Field(insn.Name, insn.Desc); ok {
				insn.Name = mapped
			}
			insn.Owner = targetClass.Name
		}
	})
}
