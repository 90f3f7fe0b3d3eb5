package handler

import (
	"fmt"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/target"
)

// Redirect implements spec.md §4.2 step 8: replaces the instruction at
// each matched anchor with an INVOKE to the transformer method. Which of
// the four variants applies is decided by the anchor's own kind (FIELD
// kinds redirect a field access, INVOKE redirects a call, NEW redirects
// an allocation) rather than by a separate directive attribute.
type Redirect struct{}

func (r *Redirect) Name() string { return "Redirect" }

func (r *Redirect) Apply(ctx *Context, targetClass, transformer *classfile.ClassNode) Outcome {
	redirected := 0
	var remaining []*classfile.MethodNode
	for _, m := range transformer.Methods {
		a := findAnnotation(m.Annotations, descRedirect)
		if a == nil {
			remaining = append(remaining, m)
			continue
		}
		methodPattern := strVal(a, "method")
		td := decodeTarget(nestedAnn(a, "target"))

		for _, tm := range findTargetMethods(targetClass, methodPattern) {
			anchors, err := target.Resolve(td, tm)
			if err != nil {
				return failed(err)
			}
			for _, anchor := range anchors {
				if err := redirectOne(targetClass, tm, m, anchor); err != nil {
					return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name, Message: err.Error()})
				}
			}
			redirected++
		}
	}
	transformer.Methods = remaining
	if redirected == 0 {
		return skipped("no @CRedirect methods")
	}
	return applied()
}

func redirectOne(targetClass *classfile.ClassNode, tm, handler *classfile.MethodNode, anchor target.Anchor) error {
	switch insn := anchor.Node.Insn.(type) {
	case *classfile.FieldInsn:
		if insn.IsGet() {
			return redirectFieldGet(targetClass, tm, handler, anchor.Node, insn)
		}
		return redirectFieldPut(targetClass, tm, handler, anchor.Node, insn)
	case *classfile.MethodInsn:
		if insn.Op == classfile.OpInvokeDynamic {
			return fmt.Errorf("INVOKEDYNAMIC redirect is unsupported")
		}
		return redirectInvoke(targetClass, tm, handler, anchor.Node, insn)
	case *classfile.TypeInsn:
		if insn.Op != classfile.OpNew {
			return fmt.Errorf("redirect anchor is not NEW, FIELD, or INVOKE")
		}
		return redirectNew(targetClass, tm, handler, anchor.Node, insn)
	default:
		return fmt.Errorf("redirect anchor is not NEW, FIELD, or INVOKE")
	}
}

// redirectFieldGet replaces a GETSTATIC/GETFIELD with a call to handler.
// Arguments are [owner] for an instance field, none for a static one;
// handler's return type must equal the field's.
func redirectFieldGet(targetClass *classfile.ClassNode, tm, handler *classfile.MethodNode, node *classfile.InsnNode, f *classfile.FieldInsn) error {
	ret, err := classfile.ReturnType(handler.Desc)
	if err != nil {
		return err
	}
	if ret != f.Desc {
		return fmt.Errorf("field-get redirect handler must return %s, got %s", f.Desc, ret)
	}
	il := tm.Instructions
	if !handler.IsStatic() {
		il.InsertBefore(node, &classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
		if !f.IsStatic() {
			// owner was already on the stack ahead of the field access;
			// SWAP puts the receiver below it for the INVOKEVIRTUAL.
			il.InsertBefore(node, &classfile.Insn{Op: classfile.OpSwap})
		}
	}
	op := classfile.OpInvokeStatic
	if !handler.IsStatic() {
		op = classfile.OpInvokeVirtual
	}
	il.Replace(node, &classfile.MethodInsn{Op: op, Owner: targetClass.Name, Name: handler.Name, Desc: handler.Desc})
	return nil
}

// redirectFieldPut replaces a PUTSTATIC/PUTFIELD with a call to handler,
// which must return void and take [owner?, value].
func redirectFieldPut(targetClass *classfile.ClassNode, tm, handler *classfile.MethodNode, node *classfile.InsnNode, f *classfile.FieldInsn) error {
	ret, err := classfile.ReturnType(handler.Desc)
	if err != nil {
		return err
	}
	if ret != "V" {
		return fmt.Errorf("field-put redirect handler must return void")
	}
	il := tm.Instructions
	valueSlot := classfile.ClaimSlot(tm, classfile.Width(f.Desc))
	ownerSlot := -1
	il.InsertBefore(node, &classfile.VarInsn{Op: classfile.StoreOpcodeFor(f.Desc), Slot: valueSlot})
	if !f.IsStatic() {
		ownerSlot = classfile.ClaimSlot(tm, 1, valueSlot)
		il.InsertBefore(node, &classfile.VarInsn{Op: classfile.OpAStore, Slot: ownerSlot})
	}
	if !handler.IsStatic() {
		il.InsertBefore(node, &classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	}
	if ownerSlot >= 0 {
		il.InsertBefore(node, &classfile.VarInsn{Op: classfile.OpALoad, Slot: ownerSlot})
	}
	il.InsertBefore(node, &classfile.VarInsn{Op: classfile.LoadOpcodeFor(f.Desc), Slot: valueSlot})
	op := classfile.OpInvokeStatic
	if !handler.IsStatic() {
		op = classfile.OpInvokeVirtual
	}
	il.Replace(node, &classfile.MethodInsn{Op: op, Owner: targetClass.Name, Name: handler.Name, Desc: handler.Desc})
	return nil
}

// redirectInvoke replaces a method invocation with a call to handler,
// which must return the same type and take the same arguments (prepended
// with the receiver, for an instance-method redirect target).
func redirectInvoke(targetClass *classfile.ClassNode, tm, handler *classfile.MethodNode, node *classfile.InsnNode, mi *classfile.MethodInsn) error {
	ret, err := classfile.ReturnType(handler.Desc)
	if err != nil {
		return err
	}
	wantRet, _ := classfile.ReturnType(mi.Desc)
	if ret != wantRet {
		return fmt.Errorf("invocation redirect handler must return %s, got %s", wantRet, ret)
	}
	op := classfile.OpInvokeStatic
	if !handler.IsStatic() {
		op = classfile.OpInvokeVirtual
	}
	tm.Instructions.Replace(node, &classfile.MethodInsn{Op: op, Owner: targetClass.Name, Name: handler.Name, Desc: handler.Desc})
	return nil
}

// redirectNew replaces the paired NEW/DUP/INVOKESPECIAL<init> sequence
// that follows node with a single call to handler, which must return the
// allocated type.
func redirectNew(targetClass *classfile.ClassNode, tm, handler *classfile.MethodNode, node *classfile.InsnNode, ti *classfile.TypeInsn) error {
	ret, err := classfile.ReturnType(handler.Desc)
	if err != nil {
		return err
	}
	if classfile.InternalName(ret) != ti.Type {
		return fmt.Errorf("NEW redirect handler must return %s, got %s", ti.Type, ret)
	}

	dup := node.Next()
	if dup == nil || dup.Insn.Opcode() != classfile.OpDup {
		return fmt.Errorf("NEW at %s is not immediately followed by DUP", tm.Name)
	}
	ctor := dup.Next()
	for ctor != nil {
		if mi, ok := ctor.Insn.(*classfile.MethodInsn); ok && mi.Op == classfile.OpInvokeSpecial && mi.Name == "<init>" && mi.Owner == ti.Type {
			break
		}
		ctor = ctor.Next()
	}
	if ctor == nil {
		return fmt.Errorf("NEW %s at %s has no matching INVOKESPECIAL <init>", ti.Type, tm.Name)
	}

	il := tm.Instructions
	op := classfile.OpInvokeStatic
	if !handler.IsStatic() {
		op = classfile.OpInvokeVirtual
	}
	if !handler.IsStatic() {
		il.InsertBefore(node, &classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	}
	replacement := &classfile.MethodInsn{Op: op, Owner: targetClass.Name, Name: handler.Name, Desc: handler.Desc}
	il.RemoveRange(dup, ctor)
	il.Replace(node, replacement)
	return nil
}
