package handler

import "github.com/chazu/classforge/classfile"

// InnerClassOpener strips private/protected off inner classes referenced
// by the transformer so that member bodies copied into the target later
// (MemberCopy, Override, Upgrade) can still link against them (spec.md
// §4.2 step 2).
type InnerClassOpener struct{}

func (o *InnerClassOpener) Name() string { return "InnerClassOpener" }

func (o *InnerClassOpener) Apply(ctx *Context, target, transformer *classfile.ClassNode) Outcome {
	changed := false
	for _, ic := range transformer.InnerClasses {
		if ic.Access&(classfile.AccPrivate|classfile.AccProtected) == 0 {
			continue
		}
		ic.Access &^= classfile.AccPrivate | classfile.AccProtected
		ic.Access |= classfile.AccPublic
		changed = true

		if existing := findInnerClass(target.InnerClasses, ic.Name); existing != nil {
			existing.Access = ic.Access
		} else {
			cp := *ic
			target.InnerClasses = append(target.InnerClasses, &cp)
		}
	}
	if !changed {
		return skipped("no non-public inner classes referenced")
	}
	return applied()
}

func findInnerClass(classes []*classfile.InnerClassNode, name string) *classfile.InnerClassNode {
	for _, ic := range classes {
		if ic.Name == name {
			return ic
		}
	}
	return nil
}
