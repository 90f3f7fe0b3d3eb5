package handler

import "github.com/chazu/classforge/classfile"

// CallbackInternalName is the internal name of the synthesized callback
// class spec.md §3 describes: a runtime value carrying a cancellation
// flag and an optional return value between a target method and its
// injector.
const CallbackInternalName = "classforge/runtime/Callback"

// CallbackClass builds (once per TransformClass call, shared by every
// transformer applied to that target) the ClassNode for the Callback
// runtime type and exposes the bytecode shapes Inject needs
// to construct and query instances of it.
type CallbackClass struct {
	Class *classfile.ClassNode
}

// NewCallbackClass synthesizes the Callback class: fields `cancelled:
// boolean` and `returnValue: Object`, two constructors `(Z)V` and
// `(ZLjava/lang/Object;)V`, and accessors
// setCancelled/setReturnValue/isCancelled/getReturnValue (spec.md §3).
func NewCallbackClass() *CallbackClass {
	c := classfile.NewClassNode(CallbackInternalName, "java/lang/Object")
	c.Access = classfile.AccPublic | classfile.AccFinal

	c.Fields = append(c.Fields,
		&classfile.FieldNode{Access: classfile.AccPrivate, Name: "cancelled", Desc: "Z"},
		&classfile.FieldNode{Access: classfile.AccPrivate, Name: "returnValue", Desc: "Ljava/lang/Object;"},
	)

	c.Methods = append(c.Methods,
		callbackCtor1(), callbackCtor2(),
		callbackSetter("setCancelled", "cancelled", "Z"),
		callbackSetter("setReturnValue", "returnValue", "Ljava/lang/Object;"),
		callbackGetter("isCancelled", "cancelled", "Z", classfile.OpIReturn),
		callbackGetter("getReturnValue", "returnValue", "Ljava/lang/Object;", classfile.OpAReturn),
	)
	return &CallbackClass{Class: c}
}

func callbackCtor1() *classfile.MethodNode {
	m := classfile.NewMethodNode(classfile.AccPublic, "<init>", "(Z)V")
	il := m.Instructions
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.MethodInsn{Op: classfile.OpInvokeSpecial, Owner: "java/lang/Object", Name: "<init>", Desc: "()V"})
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.VarInsn{Op: classfile.OpILoad, Slot: 1})
	il.Append(&classfile.FieldInsn{Op: classfile.OpPutField, Owner: CallbackInternalName, Name: "cancelled", Desc: "Z"})
	il.Append(&classfile.Insn{Op: classfile.OpReturn})
	m.MaxLocals = 2
	return m
}

func callbackCtor2() *classfile.MethodNode {
	m := classfile.NewMethodNode(classfile.AccPublic, "<init>", "(ZLjava/lang/Object;)V")
	il := m.Instructions
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.MethodInsn{Op: classfile.OpInvokeSpecial, Owner: "java/lang/Object", Name: "<init>", Desc: "()V"})
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.VarInsn{Op: classfile.OpILoad, Slot: 1})
	il.Append(&classfile.FieldInsn{Op: classfile.OpPutField, Owner: CallbackInternalName, Name: "cancelled", Desc: "Z"})
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 2})
	il.Append(&classfile.FieldInsn{Op: classfile.OpPutField, Owner: CallbackInternalName, Name: "returnValue", Desc: "Ljava/lang/Object;"})
	il.Append(&classfile.Insn{Op: classfile.OpReturn})
	m.MaxLocals = 3
	return m
}

func callbackSetter(name, field, desc string) *classfile.MethodNode {
	m := classfile.NewMethodNode(classfile.AccPublic, name, "("+desc+")V")
	il := m.Instructions
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.VarInsn{Op: classfile.LoadOpcodeFor(desc), Slot: 1})
	il.Append(&classfile.FieldInsn{Op: classfile.OpPutField, Owner: CallbackInternalName, Name: field, Desc: desc})
	il.Append(&classfile.Insn{Op: classfile.OpReturn})
	m.MaxLocals = 1 + classfile.Width(desc)
	return m
}

func callbackGetter(name, field, desc string, retOp classfile.Opcode) *classfile.MethodNode {
	m := classfile.NewMethodNode(classfile.AccPublic, name, "()"+desc)
	il := m.Instructions
	il.Append(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	il.Append(&classfile.FieldInsn{Op: classfile.OpGetField, Owner: CallbackInternalName, Name: field, Desc: desc})
	il.Append(&classfile.Insn{Op: retOp})
	m.MaxLocals = 1
	return m
}

// EmitConstruct appends (to il, after mark) the instruction sequence that
// materializes a new Callback instance and stores it in callbackSlot:
//
//	NEW Callback; DUP; ICONST_{cancellable?1:0}; [load returnValue, box if
//	primitive]; INVOKESPECIAL <init>; ASTORE callbackSlot; ALOAD
//	callbackSlot
//
// matching spec.md §4.3 "Callback materialization" exactly. loadReturnValue
// is nil when there is no captured return value yet (the HEAD/INVOKE/etc.
// case), in which case the one-argument constructor is used.
func (cc *CallbackClass) EmitConstruct(il *classfile.InsnList, mark *classfile.InsnNode, cancellable bool, callbackSlot int, loadReturnValue func(il *classfile.InsnList, at *classfile.InsnNode) *classfile.InsnNode) *classfile.InsnNode {
	at := mark
	at = il.InsertAfter(at, &classfile.TypeInsn{Op: classfile.OpNew, Type: CallbackInternalName})
	at = il.InsertAfter(at, &classfile.Insn{Op: classfile.OpDup})
	cancelVal := classfile.OpIConst0
	if cancellable {
		cancelVal = classfile.OpIConst1
	}
	at = il.InsertAfter(at, &classfile.Insn{Op: cancelVal})

	ctorDesc := "(Z)V"
	if loadReturnValue != nil {
		at = loadReturnValue(il, at)
		ctorDesc = "(ZLjava/lang/Object;)V"
	}
	at = il.InsertAfter(at, &classfile.MethodInsn{Op: classfile.OpInvokeSpecial, Owner: CallbackInternalName, Name: "<init>", Desc: ctorDesc})
	at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.OpAStore, Slot: callbackSlot})
	at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.OpALoad, Slot: callbackSlot})
	return at
}
