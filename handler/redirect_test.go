package handler

import (
	"testing"

	"github.com/chazu/classforge/classfile"
)

func redirectAnnotation(methodPattern string, td *classfile.Annotation) *classfile.Annotation {
	return &classfile.Annotation{
		Desc: descRedirect,
		Values: map[string]interface{}{
			"method": methodPattern,
			"target": td,
		},
	}
}

func TestRedirect_ReplacesInvokeWithHandlerCall(t *testing.T) {
	target_ := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	tm := classfile.NewMethodNode(classfile.AccPublic, "run", "()I")
	tm.Instructions.Append(&classfile.MethodInsn{
		Op: classfile.OpInvokeStatic, Owner: "com/acme/Helper", Name: "value", Desc: "()I",
	})
	tm.Instructions.Append(&classfile.Insn{Op: classfile.OpIReturn})
	target_.Methods = append(target_.Methods, tm)

	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	redirectHandler := classfile.NewMethodNode(classfile.AccPublic|classfile.AccStatic, "replacement", "()I")
	redirectHandler.Instructions.Append(&classfile.Insn{Op: classfile.OpIReturn})
	redirectHandler.Annotations = []*classfile.Annotation{
		redirectAnnotation("run", &classfile.Annotation{
			Values: map[string]interface{}{
				"value":  "INVOKE",
				"target": "Lcom/acme/Helper;value()I",
			},
		}),
	}
	transformer.Methods = append(transformer.Methods, redirectHandler)

	outcome := (&Redirect{}).Apply(newTestContext(), target_, transformer)
	if outcome.Result != Applied {
		t.Fatalf("expected Applied, got %v (%v)", outcome.Result, outcome.Err)
	}
	if len(transformer.Methods) != 0 {
		t.Fatal("@CRedirect handler must be removed from the transformer")
	}

	first := tm.Instructions.First()
	mi, ok := first.Insn.(*classfile.MethodInsn)
	if !ok {
		t.Fatalf("expected the first instruction to still be a MethodInsn, got %T", first.Insn)
	}
	if mi.Owner != "com/acme/Target" || mi.Name != "replacement" {
		t.Fatalf("expected the call redirected to com/acme/Target.replacement, got %s.%s", mi.Owner, mi.Name)
	}
}

func TestRedirect_FailsWhenReturnTypeMismatches(t *testing.T) {
	target_ := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	tm := classfile.NewMethodNode(classfile.AccPublic, "run", "()I")
	tm.Instructions.Append(&classfile.MethodInsn{
		Op: classfile.OpInvokeStatic, Owner: "com/acme/Helper", Name: "value", Desc: "()I",
	})
	target_.Methods = append(target_.Methods, tm)

	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	redirectHandler := classfile.NewMethodNode(classfile.AccPublic|classfile.AccStatic, "replacement", "()J")
	redirectHandler.Annotations = []*classfile.Annotation{
		redirectAnnotation("run", &classfile.Annotation{
			Values: map[string]interface{}{
				"value":  "INVOKE",
				"target": "Lcom/acme/Helper;value()I",
			},
		}),
	}
	transformer.Methods = append(transformer.Methods, redirectHandler)

	outcome := (&Redirect{}).Apply(newTestContext(), target_, transformer)
	if outcome.Result != Failed {
		t.Fatalf("expected Failed, got %v", outcome.Result)
	}
	if _, ok := outcome.Err.(*ShapeError); !ok {
		t.Fatalf("expected *ShapeError, got %T", outcome.Err)
	}
}

func TestRedirect_SkipsWhenNoRedirectMethods(t *testing.T) {
	target_ := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")

	outcome := (&Redirect{}).Apply(newTestContext(), target_, transformer)
	if outcome.Result != Skipped {
		t.Fatalf("expected Skipped, got %v", outcome.Result)
	}
}
