package remap

import (
	"testing"

	"github.com/chazu/classforge/classfile"
)

func TestRemap_RewritesClassNameAndSuperName(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Mixin", "com/acme/deobf/MixinX")
	r.PutClass("com/acme/Target", "com/acme/deobf/TargetX")

	c := classfile.NewClassNode("com/acme/Mixin", "com/acme/Target")
	Remap(c, r)

	if c.Name != "com/acme/deobf/MixinX" {
		t.Errorf("class name = %q, want com/acme/deobf/MixinX", c.Name)
	}
	if c.SuperName != "com/acme/deobf/TargetX" {
		t.Errorf("super name = %q, want com/acme/deobf/TargetX", c.SuperName)
	}
}

func TestRemap_RewritesFieldInsnOwnerAndName(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Target", "com/acme/deobf/TargetX")
	r.PutField("com/acme/Target", "count", "I", "countX")

	c := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	m := classfile.NewMethodNode(classfile.AccPublic, "bump", "()V")
	m.Instructions.Append(&classfile.FieldInsn{Op: classfile.OpGetField, Owner: "com/acme/Target", Name: "count", Desc: "I"})
	c.Methods = append(c.Methods, m)

	Remap(c, r)

	insn := m.Instructions.First().Insn.(*classfile.FieldInsn)
	if insn.Owner != "com/acme/deobf/TargetX" {
		t.Errorf("field owner = %q, want com/acme/deobf/TargetX", insn.Owner)
	}
	if insn.Name != "countX" {
		t.Errorf("field name = %q, want countX", insn.Name)
	}
}

func TestRemap_WarnsWhenOwnerMappedButMemberIsNot(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Target", "com/acme/deobf/TargetX")
	// No field mapping registered for "count".

	c := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	m := classfile.NewMethodNode(classfile.AccPublic, "bump", "()V")
	m.Instructions.Append(&classfile.FieldInsn{Op: classfile.OpGetField, Owner: "com/acme/Target", Name: "count", Desc: "I"})
	c.Methods = append(c.Methods, m)

	warnings := Remap(c, r)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for an unmapped member on a mapped owner, got %d", len(warnings))
	}
}

func TestRemap_IsIdempotent(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Mixin", "com/acme/deobf/MixinX")
	r.PutField("com/acme/Mixin", "count", "I", "countX")

	c := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	m := classfile.NewMethodNode(classfile.AccPublic, "bump", "()V")
	m.Instructions.Append(&classfile.FieldInsn{Op: classfile.OpGetField, Owner: "com/acme/Mixin", Name: "count", Desc: "I"})
	c.Methods = append(c.Methods, m)

	Remap(c, r)
	first := m.Instructions.First().Insn.(*classfile.FieldInsn)
	firstOwner, firstName := first.Owner, first.Name

	Remap(c, r)
	second := m.Instructions.First().Insn.(*classfile.FieldInsn)

	if second.Owner != firstOwner || second.Name != firstName {
		t.Fatalf("second Remap pass changed already-mapped identifiers: %q.%q", second.Owner, second.Name)
	}
}

func TestRemap_RewritesTypeValueAnnotationElements(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Target", "com/acme/deobf/TargetX")

	c := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	c.Annotations = []*classfile.Annotation{{
		Desc: "Lpkg/CTransformer;",
		Values: map[string]interface{}{
			"value": &classfile.TypeValue{Desc: "Lcom/acme/Target;"},
		},
	}}

	Remap(c, r)

	tv := c.Annotations[0].Values["value"].(*classfile.TypeValue)
	if tv.Desc != "Lcom/acme/deobf/TargetX;" {
		t.Errorf("annotation TypeValue desc = %q, want Lcom/acme/deobf/TargetX;", tv.Desc)
	}
}
