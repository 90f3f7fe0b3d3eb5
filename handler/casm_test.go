package handler

import (
	"testing"

	"github.com/chazu/classforge/classfile"
)

func TestCASM_DispatchesToRegisteredHookForMatchingPhase(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/casm/Mixin", "java/lang/Object")
	hook := classfile.NewMethodNode(classfile.AccPublic, "patch", "()V")
	hook.Annotations = []*classfile.Annotation{{
		Desc:   descCASM,
		Values: map[string]interface{}{"phase": "TOP"},
	}}
	transformer.Methods = append(transformer.Methods, hook)

	ran := false
	RegisterASMHook(transformer.Name, "patch", func(ctx *Context, target, transformer *classfile.ClassNode) error {
		ran = true
		target.Access |= classfile.AccFinal
		return nil
	})

	top := &CASM{Phase: CASMTop}
	outcome := top.Apply(newTestContext(), target, transformer)
	if outcome.Result != Applied {
		t.Fatalf("expected Applied, got %v (%v)", outcome.Result, outcome.Err)
	}
	if !ran {
		t.Fatal("expected the registered hook to run")
	}
	if target.Access&classfile.AccFinal == 0 {
		t.Fatal("expected the hook's mutation of the target to take effect")
	}

	bottom := &CASM{Phase: CASMBottom}
	outcome = bottom.Apply(newTestContext(), target, transformer)
	if outcome.Result != Skipped {
		t.Fatalf("expected the bottom phase to skip a TOP-phase hook, got %v", outcome.Result)
	}
}

func TestCASM_WarnsWhenNoHookRegistered(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/casm/Unregistered", "java/lang/Object")
	hook := classfile.NewMethodNode(classfile.AccPublic, "patch", "()V")
	hook.Annotations = []*classfile.Annotation{{Desc: descCASM}}
	transformer.Methods = append(transformer.Methods, hook)

	outcome := (&CASM{Phase: CASMTop}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Skipped {
		t.Fatalf("expected Skipped when no hook is registered, got %v", outcome.Result)
	}
}
