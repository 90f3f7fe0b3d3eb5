package handler

import (
	"testing"

	"github.com/chazu/classforge/classfile"
)

func TestInnerClassOpener_OpensPrivateInnerClassAndCopiesEntry(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	transformer.InnerClasses = append(transformer.InnerClasses, &classfile.InnerClassNode{
		Name: "com/acme/Mixin$Helper", Access: classfile.AccPrivate,
	})

	outcome := (&InnerClassOpener{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Applied {
		t.Fatalf("expected Applied, got %v (%v)", outcome.Result, outcome.Err)
	}
	if transformer.InnerClasses[0].Access&classfile.AccPrivate != 0 {
		t.Fatal("expected AccPrivate to be cleared")
	}
	if transformer.InnerClasses[0].Access&classfile.AccPublic == 0 {
		t.Fatal("expected AccPublic to be set")
	}
	if len(target.InnerClasses) != 1 || target.InnerClasses[0].Name != "com/acme/Mixin$Helper" {
		t.Fatalf("expected the inner class entry to be copied onto the target, got %v", target.InnerClasses)
	}
}

func TestInnerClassOpener_SkipsWhenAlreadyPublic(t *testing.T) {
	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	transformer := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	transformer.InnerClasses = append(transformer.InnerClasses, &classfile.InnerClassNode{
		Name: "com/acme/Mixin$Helper", Access: classfile.AccPublic,
	})

	outcome := (&InnerClassOpener{}).Apply(newTestContext(), target, transformer)
	if outcome.Result != Skipped {
		t.Fatalf("expected Skipped, got %v", outcome.Result)
	}
}
