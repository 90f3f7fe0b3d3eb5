package handler

import (
	"fmt"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/target"
)

// ModifyConstant implements spec.md §4.2 step 9: at each matching
// load-of-constant, inserts a call to a transformer method of signature
// (T) -> T, taking the original constant as its argument and replacing it
// on the stack with the call's result.
type ModifyConstant struct{}

func (c *ModifyConstant) Name() string { return "ModifyConstant" }

func (c *ModifyConstant) Apply(ctx *Context, targetClass, transformer *classfile.ClassNode) Outcome {
	modified := 0
	var remaining []*classfile.MethodNode
	for _, m := range transformer.Methods {
		a := findAnnotation(m.Annotations, descModifyConstant)
		if a == nil {
			remaining = append(remaining, m)
			continue
		}
		methodPattern := strVal(a, "method")
		arg, err := constantArg(nestedAnn(a, "constant"))
		if err != nil {
			return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name, Message: err.Error()})
		}
		td := target.NewDescriptor(target.KindConstant, arg)
		td.Shift = target.ShiftAfter

		for _, tm := range findTargetMethods(targetClass, methodPattern) {
			anchors, err := target.Resolve(td, tm)
			if err != nil {
				return failed(err)
			}
			for _, anchor := range anchors {
				if err := modifyConstantOne(targetClass, tm, m, anchor); err != nil {
					return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name, Message: err.Error()})
				}
			}
			modified++
		}
	}
	transformer.Methods = remaining
	if modified == 0 {
		return skipped("no @CModifyConstant methods")
	}
	return applied()
}

// constantArg renders a @CConstant(intValue=.../stringValue=.../nullValue=...)
// annotation into the free-form argument string target.KindConstant's
// resolver parses.
func constantArg(ann *classfile.Annotation) (string, error) {
	if ann == nil {
		return "", fmt.Errorf("@CModifyConstant requires a constant=@CConstant(...) value")
	}
	if boolVal(ann, "nullValue", false) {
		return "null", nil
	}
	if s := strVal(ann, "stringValue"); s != "" {
		return fmt.Sprintf("%q", s), nil
	}
	for _, key := range []string{"intValue", "longValue", "floatValue", "doubleValue"} {
		if v, ok := ann.Values[key]; ok {
			return fmt.Sprintf("%v", v), nil
		}
	}
	return "", fmt.Errorf("@CConstant did not set a recognized value field")
}

func modifyConstantOne(targetClass *classfile.ClassNode, tm, handler *classfile.MethodNode, anchor target.Anchor) error {
	argTypes, err := classfile.ArgumentTypes(handler.Desc)
	if err != nil {
		return err
	}
	ret, err := classfile.ReturnType(handler.Desc)
	if err != nil {
		return err
	}
	if len(argTypes) != 1 || argTypes[0] != ret {
		return fmt.Errorf("modify-constant handler must have signature (T)T matching the constant's type")
	}

	il := tm.Instructions
	at := anchor.Node
	if !handler.IsStatic() {
		at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
		at = il.InsertAfter(at, &classfile.Insn{Op: classfile.OpSwap})
	}
	op := classfile.OpInvokeStatic
	if !handler.IsStatic() {
		op = classfile.OpInvokeVirtual
	}
	il.InsertAfter(at, &classfile.MethodInsn{Op: op, Owner: targetClass.Name, Name: handler.Name, Desc: handler.Desc})
	return nil
}
