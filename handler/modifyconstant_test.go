package handler

import (
	"testing"

	"github.com/chazu/classforge/classfile"
)

func TestModifyConstant_InsertsCallAfterMatchingConstant(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	tm := classfile.NewMethodNode(classfile.AccPublic, "run", "()I")
	push := &classfile.IntPushInsn{Op: classfile.OpSIPush, Value: 5}
	tm.Instructions.Append(push)
	tm.Instructions.Append(&classfile.Insn{Op: classfile.OpIReturn})
	target.Methods = append(target.Methods, tm)

	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	mod := classfile.NewMethodNode(classfile.AccPublic|classfile.AccStatic, "tweak", "(I)I")
	mod.Instructions.Append(&classfile.Insn{Op: classfile.OpIReturn})
	mod.Annotations = []*classfile.Annotation{{
		Desc: descModifyConstant,
		Values: map[string]interface{}{
			"method": "run",
			"constant": &classfile.Annotation{
				Values: map[string]interface{}{"intValue": int64(5)},
			},
		},
	}}
	transformer.Methods = append(transformer.Methods, mod)

	outcome := (&ModifyConstant{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Applied {
		t.Fatalf("expected Applied, got %v (%v)", outcome.Result, outcome.Err)
	}

	next := tm.Instructions.First().Next()
	mi, ok := next.Insn.(*classfile.MethodInsn)
	if !ok {
		t.Fatalf("expected a MethodInsn right after the constant push, got %T", next.Insn)
	}
	if mi.Owner != "com/acme/Target" || mi.Name != "tweak" {
		t.Fatalf("expected a call to com/acme/Target.tweak, got %s.%s", mi.Owner, mi.Name)
	}
}

func TestModifyConstant_FailsWithoutConstantValue(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	tm := classfile.NewMethodNode(classfile.AccPublic, "run", "()I")
	target.Methods = append(target.Methods, tm)

	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	mod := classfile.NewMethodNode(classfile.AccPublic|classfile.AccStatic, "tweak", "(I)I")
	mod.Annotations = []*classfile.Annotation{{
		Desc:   descModifyConstant,
		Values: map[string]interface{}{"method": "run"},
	}}
	transformer.Methods = append(transformer.Methods, mod)

	outcome := (&ModifyConstant{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Failed {
		t.Fatalf("expected Failed, got %v", outcome.Result)
	}
}
