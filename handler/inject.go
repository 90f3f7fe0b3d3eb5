package handler

import (
	"fmt"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/target"
)

// Inject implements the central case of spec.md §4.3: materializes a call
// from an anchor inside a target method to a transformer method, threading
// through target arguments, resolved @CLocalVariable parameters, and an
// optional cancellable Callback.
type Inject struct{}

func (i *Inject) Name() string { return "Inject" }

func (i *Inject) Apply(ctx *Context, targetClass, transformer *classfile.ClassNode) Outcome {
	injected := 0
	var remaining []*classfile.MethodNode
	for _, m := range transformer.Methods {
		a := findAnnotation(m.Annotations, descInject)
		if a == nil {
			remaining = append(remaining, m)
			continue
		}
		plan, err := planInject(m, a)
		if err != nil {
			return failed(err)
		}
		td := decodeTarget(nestedAnn(a, "target"))

		tms := findTargetMethods(targetClass, plan.methodPattern)
		if len(tms) == 0 && !td.Optional {
			return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name,
				Message: "no target method matches " + plan.methodPattern,
				Hint:    "check the method pattern against the target class"})
		}
		for _, tm := range tms {
			if tm.IsStatic() != m.IsStatic() {
				return failed(&ShapeError{
					Transformer: transformer.Name, Method: m.Name,
					Message: "staticness of inject handler does not match target method",
					Hint:    fmt.Sprintf("mark the transformer method %s", staticHint(tm.IsStatic())),
				})
			}
			if err := plan.checkArgShape(tm); err != nil {
				return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name, Message: err.Error(),
					Hint: "head parameters must be empty, [Callback], the target's argument list, or the target's argument list followed by Callback"})
			}
		}
		if err := plan.resolveLocalVars(tms); err != nil {
			return failed(&ShapeError{Transformer: transformer.Name, Method: m.Name, Message: err.Error()})
		}
		if plan.hasModifiable() {
			plan.rewriteForModifiableLocals(m)
		}

		for _, tm := range tms {
			anchors, err := target.Resolve(td, tm)
			if err != nil {
				return failed(err)
			}
			for _, anchor := range anchors {
				emitInject(ctx, targetClass, tm, m, plan, anchor, boolVal(a, "cancellable", false))
			}
			injected++
		}
	}
	transformer.Methods = remaining
	if injected == 0 {
		return skipped("no @CInject methods")
	}
	return applied()
}

// injectPlan is the argument-shape and local-variable analysis of one
// @CInject transformer method, computed once and reused across every
// target method and anchor it is injected into.
type injectPlan struct {
	methodPattern string
	head          []string
	hasArgs       bool
	hasCallback   bool
	localVars     []*localVarSpec
	arraySlot     int // set by rewriteForModifiableLocals
}

type localVarSpec struct {
	paramIndex int // index among transformer's tail parameters
	desc       string
	byName     string
	byIndex    int // -1 if identified by name
	modifiable bool
	loadOp     classfile.Opcode
	targetSlot int // resolved per target method inside emitInject
}

func planInject(m *classfile.MethodNode, a *classfile.Annotation) (*injectPlan, error) {
	ret, err := classfile.ReturnType(m.Desc)
	if err != nil {
		return nil, err
	}
	if ret != "V" {
		return nil, &ShapeError{Method: m.Name, Message: "@CInject handler must return void"}
	}
	argTypes, err := classfile.ArgumentTypes(m.Desc)
	if err != nil {
		return nil, err
	}

	tailCount := 0
	for idx := len(argTypes) - 1; idx >= 0; idx-- {
		if findAnnotation(m.ParamAnnotations[idx], descLocalVariable) == nil {
			break
		}
		tailCount++
	}
	headCount := len(argTypes) - tailCount
	head := argTypes[:headCount]

	hasCallback := false
	if len(head) > 0 && head[len(head)-1] == "L"+CallbackInternalName+";" {
		hasCallback = true
		head = head[:len(head)-1]
	}

	plan := &injectPlan{
		methodPattern: strVal(a, "method"),
		head:          head,
		hasArgs:       len(head) > 0,
		hasCallback:   hasCallback,
	}
	for i := 0; i < tailCount; i++ {
		idx := headCount + i
		lv := findAnnotation(m.ParamAnnotations[idx], descLocalVariable)
		spec := &localVarSpec{
			paramIndex: idx,
			desc:       argTypes[idx],
			byName:     strVal(lv, "name"),
			byIndex:    intVal(lv, "index", -1),
			modifiable: boolVal(lv, "modifiable", false),
		}
		if opName := strVal(lv, "loadOpcode"); opName != "" {
			if op, ok := classfile.OpcodeByName(opName); ok {
				spec.loadOp = op
			}
		}
		plan.localVars = append(plan.localVars, spec)
	}
	return plan, nil
}

// checkArgShape validates plan's head against tm's argument list (spec.md
// §4.3's four accepted shapes), independent of any particular tm once
// hasArgs is known, but the first mismatching tm still produces a useful
// error naming it.
func (p *injectPlan) checkArgShape(tm *classfile.MethodNode) error {
	if !p.hasArgs {
		return nil
	}
	targetArgs, err := classfile.ArgumentTypes(tm.Desc)
	if err != nil {
		return err
	}
	if len(targetArgs) != len(p.head) {
		return fmt.Errorf("head parameters do not match target method's argument list")
	}
	for i, t := range targetArgs {
		if t != p.head[i] {
			return fmt.Errorf("head parameters do not match target method's argument list")
		}
	}
	return nil
}

func (p *injectPlan) hasModifiable() bool {
	for _, lv := range p.localVars {
		if lv.modifiable {
			return true
		}
	}
	return false
}

func (p *injectPlan) modifiableSpecs() []*localVarSpec {
	var out []*localVarSpec
	for _, lv := range p.localVars {
		if lv.modifiable {
			out = append(out, lv)
		}
	}
	return out
}

// resolveLocalVars fixes each spec's load opcode when not explicit. Slot
// resolution against a specific target method happens per-tm inside
// emitInject since by-name lookups depend on that method's local-variable
// table.
func (p *injectPlan) resolveLocalVars(tms []*classfile.MethodNode) error {
	for _, lv := range p.localVars {
		if (lv.byIndex < 0) == (lv.byName == "") {
			return fmt.Errorf("@CLocalVariable must set exactly one of index or name")
		}
		if lv.loadOp == 0 {
			lv.loadOp = classfile.LoadOpcodeFor(lv.desc)
		}
	}
	return nil
}

func resolveLocalSlot(lv *localVarSpec, tm *classfile.MethodNode) (int, error) {
	if lv.byIndex >= 0 {
		return lv.byIndex, nil
	}
	for _, e := range tm.LocalVars {
		if e.Name == lv.byName {
			return e.Index, nil
		}
	}
	return 0, fmt.Errorf("local variable named %q not found in %s%s", lv.byName, tm.Name, tm.Desc)
}

// rewriteForModifiableLocals appends a trailing Object[] parameter to m's
// descriptor, bumps every VarInsn referencing a slot at or beyond the new
// parameter's slot, and inserts the update-on-exit packing code before
// every RETURN/ATHROW in m's own body (spec.md §4.3).
func (p *injectPlan) rewriteForModifiableLocals(m *classfile.MethodNode) {
	argTypes, _ := classfile.ArgumentTypes(m.Desc)
	width := 0
	if !m.IsStatic() {
		width = 1
	}
	for _, t := range argTypes {
		width += classfile.Width(t)
	}
	p.arraySlot = width
	classfile.BumpSlotsAtOrAbove(m, width, 1)

	ret, _ := classfile.ReturnType(m.Desc)
	closeParen := len(m.Desc) - len(ret) - 1
	m.Desc = m.Desc[:closeParen] + "[Ljava/lang/Object;" + m.Desc[closeParen:]

	specs := p.modifiableSpecs()
	il := m.Instructions
	for _, n := range il.Slice() {
		op := n.Insn.Opcode()
		if !classfile.IsReturn(op) && op != classfile.OpAThrow {
			continue
		}
		pack := newInserter(il, n, true)
		for idx, lv := range specs {
			pack.emit(&classfile.VarInsn{Op: classfile.OpALoad, Slot: p.arraySlot})
			pack.emit(intPush(idx))
			pack.emit(&classfile.VarInsn{Op: classfile.LoadOpcodeFor(lv.desc), Slot: lv.paramIndexSlot(m)})
			if classfile.IsPrimitive(lv.desc) {
				pack.emit(&classfile.MethodInsn{
					Op: classfile.OpInvokeStatic, Owner: classfile.BoxedType(lv.desc),
					Name: "valueOf", Desc: classfile.BoxedValueOfDesc(lv.desc),
				})
			}
			pack.emit(&classfile.Insn{Op: classfile.OpAAStore})
		}
	}
}

// paramIndexSlot returns the transformer-local slot of a parameter at
// paramIndex, accounting for the receiver slot on instance methods. Widths
// of earlier parameters matter; callers only use this for scalar
// @LocalVariable parameters, which is all the modifiable path supports.
func (lv *localVarSpec) paramIndexSlot(m *classfile.MethodNode) int {
	argTypes, _ := classfile.ArgumentTypes(m.Desc)
	slot := 0
	if !m.IsStatic() {
		slot = 1
	}
	for i := 0; i < lv.paramIndex; i++ {
		slot += classfile.Width(argTypes[i])
	}
	return slot
}

// inserter accumulates a sequence of instructions either immediately
// before or immediately after a fixed anchor node, preserving program
// order regardless of shift direction.
type inserter struct {
	il     *classfile.InsnList
	mark   *classfile.InsnNode
	cursor *classfile.InsnNode
	before bool
}

func newInserter(il *classfile.InsnList, mark *classfile.InsnNode, before bool) *inserter {
	return &inserter{il: il, mark: mark, cursor: mark, before: before}
}

func (ins *inserter) emit(i classfile.Instruction) *classfile.InsnNode {
	if ins.before && ins.cursor == ins.mark {
		ins.cursor = ins.il.InsertBefore(ins.mark, i)
		return ins.cursor
	}
	ins.cursor = ins.il.InsertAfter(ins.cursor, i)
	return ins.cursor
}

// chain runs fn with the next valid append point, for helpers (like
// CallbackClass.EmitConstruct) that build their own multi-instruction
// sequence via InsertAfter chaining.
func (ins *inserter) chain(fn func(il *classfile.InsnList, at *classfile.InsnNode) *classfile.InsnNode) {
	if ins.before && ins.cursor == ins.mark {
		ins.emit(&classfile.Insn{Op: classfile.OpNop})
	}
	ins.cursor = fn(ins.il, ins.cursor)
}

func emitInject(ctx *Context, targetClass *classfile.ClassNode, tm, m *classfile.MethodNode, plan *injectPlan, anchor target.Anchor, cancellable bool) {
	il := tm.Instructions
	before := anchor.Shift != target.ShiftAfter
	ins := newInserter(il, anchor.Node, before)

	captureDesc, capture := captureTypeFor(anchor.Node, tm)
	returnVar := -1
	if capture {
		returnVar = classfile.ClaimSlot(tm, classfile.Width(captureDesc))
		ins.emit(&classfile.Insn{Op: dupOpFor(captureDesc)})
		ins.emit(&classfile.VarInsn{Op: classfile.StoreOpcodeFor(captureDesc), Slot: returnVar})
	}

	if !tm.IsStatic() {
		ins.emit(&classfile.VarInsn{Op: classfile.OpALoad, Slot: 0})
	}
	if plan.hasArgs {
		slot := 0
		if !tm.IsStatic() {
			slot = 1
		}
		targetArgs, _ := classfile.ArgumentTypes(tm.Desc)
		for _, t := range targetArgs {
			ins.emit(&classfile.VarInsn{Op: classfile.LoadOpcodeFor(t), Slot: slot})
			slot += classfile.Width(t)
		}
	}

	for _, lv := range plan.localVars {
		lvSlot, err := resolveLocalSlot(lv, tm)
		if err != nil {
			if ctx.Log != nil {
				ctx.Log.Warn("inject: %v", err)
			}
			continue
		}
		lv.targetSlot = lvSlot
		ins.emit(&classfile.VarInsn{Op: lv.loadOp, Slot: lvSlot})
	}

	arrSlot := -1
	modSpecs := plan.modifiableSpecs()
	if len(modSpecs) > 0 {
		arrSlot = classfile.ClaimSlot(tm, 1, returnVar)
		ins.emit(intPush(len(modSpecs)))
		ins.emit(&classfile.TypeInsn{Op: classfile.OpANewArray, Type: "java/lang/Object"})
		ins.emit(&classfile.VarInsn{Op: classfile.OpAStore, Slot: arrSlot})
		for idx, lv := range modSpecs {
			ins.emit(&classfile.VarInsn{Op: classfile.OpALoad, Slot: arrSlot})
			ins.emit(intPush(idx))
			ins.emit(&classfile.VarInsn{Op: lv.loadOp, Slot: lv.targetSlot})
			if classfile.IsPrimitive(lv.desc) {
				ins.emit(&classfile.MethodInsn{Op: classfile.OpInvokeStatic, Owner: classfile.BoxedType(lv.desc),
					Name: "valueOf", Desc: classfile.BoxedValueOfDesc(lv.desc)})
			}
			ins.emit(&classfile.Insn{Op: classfile.OpAAStore})
		}
		ins.emit(&classfile.VarInsn{Op: classfile.OpALoad, Slot: arrSlot})
	}

	callbackSlot := -1
	if plan.hasCallback {
		callbackSlot = classfile.ClaimSlot(tm, 1, returnVar, arrSlot)
		var loadReturnValue func(il *classfile.InsnList, at *classfile.InsnNode) *classfile.InsnNode
		if capture {
			loadReturnValue = func(il *classfile.InsnList, at *classfile.InsnNode) *classfile.InsnNode {
				at = il.InsertAfter(at, &classfile.VarInsn{Op: classfile.LoadOpcodeFor(captureDesc), Slot: returnVar})
				if classfile.IsPrimitive(captureDesc) {
					at = il.InsertAfter(at, &classfile.MethodInsn{Op: classfile.OpInvokeStatic, Owner: classfile.BoxedType(captureDesc),
						Name: "valueOf", Desc: classfile.BoxedValueOfDesc(captureDesc)})
				}
				return at
			}
		}
		ins.chain(func(il *classfile.InsnList, at *classfile.InsnNode) *classfile.InsnNode {
			return ctx.Callback.EmitConstruct(il, at, cancellable, callbackSlot, loadReturnValue)
		})
	}

	op := classfile.OpInvokeVirtual
	if tm.IsStatic() {
		op = classfile.OpInvokeStatic
	}
	ins.emit(&classfile.MethodInsn{Op: op, Owner: targetClass.Name, Name: m.Name, Desc: m.Desc})

	if len(modSpecs) > 0 {
		for idx, lv := range modSpecs {
			ins.emit(&classfile.VarInsn{Op: classfile.OpALoad, Slot: arrSlot})
			ins.emit(intPush(idx))
			ins.emit(&classfile.Insn{Op: classfile.OpAALoad})
			if classfile.IsPrimitive(lv.desc) {
				boxed := classfile.BoxedType(lv.desc)
				unboxName, unboxDesc := classfile.BoxedUnboxMethod(lv.desc)
				ins.emit(&classfile.TypeInsn{Op: classfile.OpCheckCast, Type: boxed})
				ins.emit(&classfile.MethodInsn{Op: classfile.OpInvokeVirtual, Owner: boxed, Name: unboxName, Desc: unboxDesc})
			} else {
				ins.emit(&classfile.TypeInsn{Op: classfile.OpCheckCast, Type: classfile.InternalName(lv.desc)})
			}
			ins.emit(&classfile.VarInsn{Op: classfile.StoreOpcodeFor(lv.desc), Slot: lv.targetSlot})
		}
	}

	if plan.hasCallback && cancellable {
		retDesc, _ := classfile.ReturnType(tm.Desc)
		skip := classfile.NewLabel("inject$skip")
		ins.emit(&classfile.VarInsn{Op: classfile.OpALoad, Slot: callbackSlot})
		ins.emit(&classfile.MethodInsn{Op: classfile.OpInvokeVirtual, Owner: CallbackInternalName, Name: "isCancelled", Desc: "()Z"})
		ins.emit(&classfile.JumpInsn{Op: classfile.OpIfEq, Target: skip})
		if retDesc == "V" {
			ins.emit(&classfile.Insn{Op: classfile.OpReturn})
		} else {
			ins.emit(&classfile.VarInsn{Op: classfile.OpALoad, Slot: callbackSlot})
			ins.emit(&classfile.MethodInsn{Op: classfile.OpInvokeVirtual, Owner: CallbackInternalName, Name: "getReturnValue", Desc: "()Ljava/lang/Object;"})
			if classfile.IsPrimitive(retDesc) {
				boxed := classfile.BoxedType(retDesc)
				unboxName, unboxDesc := classfile.BoxedUnboxMethod(retDesc)
				ins.emit(&classfile.TypeInsn{Op: classfile.OpCheckCast, Type: boxed})
				ins.emit(&classfile.MethodInsn{Op: classfile.OpInvokeVirtual, Owner: boxed, Name: unboxName, Desc: unboxDesc})
			} else {
				ins.emit(&classfile.TypeInsn{Op: classfile.OpCheckCast, Type: classfile.InternalName(retDesc)})
			}
			ins.emit(&classfile.Insn{Op: classfile.ReturnOpcodeFor(retDesc)})
		}
		ins.emit(skip)
	}
}

// captureTypeFor reports whether anchor is a RETURN/TAIL with a non-void
// value on the stack, or a THROW (always capturing the thrown reference),
// per spec.md §4.3's "capture vs call".
func captureTypeFor(node *classfile.InsnNode, tm *classfile.MethodNode) (desc string, capture bool) {
	op := node.Insn.Opcode()
	if op == classfile.OpAThrow {
		return "Ljava/lang/Throwable;", true
	}
	if classfile.IsReturn(op) {
		ret, _ := classfile.ReturnType(tm.Desc)
		if ret != "V" {
			return ret, true
		}
	}
	return "", false
}

// intPush builds a normalized constant-push instruction for a small
// non-negative index (array index or callback ordinal); the writer picks
// the most compact real opcode (ICONST_*/BIPUSH/SIPUSH) from Value, so
// OpSIPush here is only a carrier tag, not the emitted opcode.
func intPush(n int) *classfile.IntPushInsn {
	return &classfile.IntPushInsn{Op: classfile.OpSIPush, Value: int32(n)}
}

func dupOpFor(desc string) classfile.Opcode {
	if classfile.Width(desc) == 2 {
		return classfile.OpDup2
	}
	return classfile.OpDup
}
