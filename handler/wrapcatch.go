package handler

import (
	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/target"
)

// WrapCatch implements spec.md §4.2 step 6: wraps a directive-selected
// region of the target method in a try/catch that calls the transformer
// method with the caught throwable, then rethrows it. The catch handler
// is marked Synthetic so target.KindThrow never re-selects its rethrow on
// a later pass (spec.md §9's open question).
//
// Directive shape: @CWrapCatch(method="name", exception="java/lang/Throwable",
// from=@CTarget(...), to=@CTarget(...)) on a void transformer method taking
// exactly the caught exception type.
type WrapCatch struct{}

func (w *WrapCatch) Name() string { return "WrapCatch" }

func (w *WrapCatch) Apply(ctx *Context, targetClass, transformer *classfile.ClassNode) Outcome {
	wrapped := 0
	var remaining []*classfile.MethodNode
	for _, m := range transformer.Methods {
		a := findAnnotation(m.Annotations, descWrapCatch)
		if a == nil {
			remaining = append(remaining, m)
			continue
		}
		methodPattern := strVal(a, "method")
		exceptionType := strVal(a, "exception")
		if exceptionType == "" {
			exceptionType = "java/lang/Throwable"
		}
		argTypes, err := classfile.ArgumentTypes(m.Desc)
		if err != nil || len(argTypes) != 1 {
			return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name,
				Message: "wrap-catch handler must take exactly one argument (the caught exception)"})
		}
		ret, _ := classfile.ReturnType(m.Desc)
		if ret != "V" {
			return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name,
				Message: "wrap-catch handler must return void"})
		}

		for _, tm := range findTargetMethods(targetClass, methodPattern) {
			if err := wrapOne(targetClass, tm, m, a, exceptionType); err != nil {
				return failed(err)
			}
			wrapped++
		}
	}
	transformer.Methods = remaining
	if wrapped == 0 {
		return skipped("no @CWrapCatch methods")
	}
	return applied()
}

func wrapOne(targetClass *classfile.ClassNode, tm, handler *classfile.MethodNode, a *classfile.Annotation, exceptionType string) error {
	fromDesc := decodeTarget(nestedAnn(a, "from"))
	toDesc := decodeTarget(nestedAnn(a, "to"))
	fromAnchors, err := target.Resolve(fromDesc, tm)
	if err != nil {
		return err
	}
	toAnchors, err := target.Resolve(toDesc, tm)
	if err != nil {
		return err
	}

	il := tm.Instructions
	startLabel := classfile.NewLabel("wrapcatch$start")
	endLabel := classfile.NewLabel("wrapcatch$end")
	handlerLabel := classfile.NewLabel("wrapcatch$handler")

	il.InsertBefore(fromAnchors[0].Node, startLabel)
	il.InsertAfter(toAnchors[len(toAnchors)-1].Node, endLabel)

	excSlot := classfile.ClaimSlot(tm, 1)
	at := il.Append(handlerLabel)
	at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.OpAStore, Slot: excSlot})
	if !handler.IsStatic() {
		at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	}
	at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.OpALoad, Slot: excSlot})
	op := classfile.OpInvokeVirtual
	if handler.IsStatic() {
		op = classfile.OpInvokeStatic
	}
	at = il.InsertAfter(at, &classfile.MethodInsn{Op: op, Owner: targetClass.Name, Name: handler.Name, Desc: handler.Desc})
	at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.OpALoad, Slot: excSlot})
	il.InsertAfter(at, &classfile.Insn{Op: classfile.OpAThrow})

	tm.TryCatch = append(tm.TryCatch, &classfile.TryCatchBlockNode{
		Start: startLabel, End: endLabel, Handler: handlerLabel, Type: exceptionType, Synthetic: true,
	})
	return nil
}
