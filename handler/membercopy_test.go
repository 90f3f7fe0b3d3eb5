package handler

import (
	"testing"

	"github.com/chazu/classforge/classfile"
)

func TestMemberCopy_CopiesRemainingFieldsAndMethods(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	transformer.Fields = append(transformer.Fields, &classfile.FieldNode{Name: "extra", Desc: "I"})
	helper := classfile.NewMethodNode(classfile.AccPublic, "helper", "()V")
	helper.Instructions.Append(&classfile.Insn{Op: classfile.OpReturn})
	transformer.Methods = append(transformer.Methods, helper)

	outcome := (&MemberCopy{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Applied {
		t.Fatalf("expected Applied, got %v (%v)", outcome.Result, outcome.Err)
	}
	if len(target.Fields) != 1 || target.Fields[0].Name != "extra" {
		t.Fatalf("expected the transformer's field to be copied onto the target, got %v", target.Fields)
	}
	if target.FindMethod("helper", "()V") == nil {
		t.Fatal("expected the transformer's method to be copied onto the target")
	}
	if len(transformer.Fields) != 0 || len(transformer.Methods) != 0 {
		t.Fatal("expected the transformer to be emptied after copying")
	}
}

func TestMemberCopy_RewritesSelfReferencesToTarget(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")

	caller := classfile.NewMethodNode(classfile.AccPublic, "run", "()V")
	caller.Instructions.Append(&classfile.MethodInsn{
		Op: classfile.OpInvokeVirtual, Owner: "com/acme/Mixin", Name: "count", Desc: "()I",
	})
	caller.Instructions.Append(&classfile.Insn{Op: classfile.OpPop})
	caller.Instructions.Append(&classfile.Insn{Op: classfile.OpReturn})
	transformer.Methods = append(transformer.Methods, caller)

	ctx := newTestContext()
	ctx.Idents.PutMethod("count", "()I", "count$original")

	outcome := (&MemberCopy{}).Apply(ctx, target, transformer)
	if outcome.Result != Applied {
		t.Fatalf("expected Applied, got %v (%v)", outcome.Result, outcome.Err)
	}

	copied := target.FindMethod("run", "()V")
	if copied == nil {
		t.Fatal("expected run to be copied onto the target")
	}
	mi, ok := copied.Instructions.First().Insn.(*classfile.MethodInsn)
	if !ok {
		t.Fatalf("expected the first instruction to be a MethodInsn, got %T", copied.Instructions.First().Insn)
	}
	if mi.Owner != "com/acme/Target" {
		t.Fatalf("expected the self-call's owner to be rewritten to the target, got %q", mi.Owner)
	}
	if mi.Name != "count$original" {
		t.Fatalf("expected the self-call's name to follow the identifier map, got %q", mi.Name)
	}
}

func TestMemberCopy_SkipsWhenNothingLeft(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")

	outcome := (&MemberCopy{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Skipped {
		t.Fatalf("expected Skipped, got %v", outcome.Result)
	}
}
