package handler

import (
	"testing"

	"github.com/chazu/classforge/classfile"
)

func TestWrapCatch_WrapsRangeAndMarksHandlerSynthetic(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	tm := classfile.NewMethodNode(classfile.AccPublic, "run", "()V")
	tm.Instructions.Append(&classfile.Insn{Op: classfile.OpNop})
	tm.Instructions.Append(&classfile.Insn{Op: classfile.OpReturn})
	target.Methods = append(target.Methods, tm)

	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	onError := classfile.NewMethodNode(classfile.AccPublic|classfile.AccStatic, "onError", "(Ljava/lang/Throwable;)V")
	onError.Instructions.Append(&classfile.Insn{Op: classfile.OpReturn})
	onError.Annotations = []*classfile.Annotation{{
		Desc: descWrapCatch,
		Values: map[string]interface{}{
			"method": "run",
			"from":   &classfile.Annotation{Values: map[string]interface{}{"value": "HEAD"}},
			"to":     &classfile.Annotation{Values: map[string]interface{}{"value": "TAIL"}},
		},
	}}
	transformer.Methods = append(transformer.Methods, onError)

	outcome := (&WrapCatch{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Applied {
		t.Fatalf("expected Applied, got %v (%v)", outcome.Result, outcome.Err)
	}
	if len(tm.TryCatch) != 1 {
		t.Fatalf("expected one try/catch block, got %d", len(tm.TryCatch))
	}
	tcb := tm.TryCatch[0]
	if !tcb.Synthetic {
		t.Fatal("expected the wrap-catch handler block to be marked Synthetic")
	}
	if tcb.Type != "java/lang/Throwable" {
		t.Fatalf("expected the default exception type, got %q", tcb.Type)
	}

	found := false
	tm.Instructions.Each(func(n *classfile.InsnNode) {
		if mi, ok := n.Insn.(*classfile.MethodInsn); ok && mi.Name == "onError" {
			if mi.Owner != "com/acme/Target" {
				t.Fatalf("expected the handler call's owner to be the target class, got %q", mi.Owner)
			}
			found = true
		}
	})
	if !found {
		t.Fatal("expected a call to onError inserted into the handler region")
	}
}

func TestWrapCatch_FailsOnWrongHandlerArity(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	bad := classfile.NewMethodNode(classfile.AccPublic|classfile.AccStatic, "onError", "()V")
	bad.Annotations = []*classfile.Annotation{{
		Desc:   descWrapCatch,
		Values: map[string]interface{}{"method": "run"},
	}}
	transformer.Methods = append(transformer.Methods, bad)

	outcome := (&WrapCatch{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Failed {
		t.Fatalf("expected Failed, got %v", outcome.Result)
	}
}
