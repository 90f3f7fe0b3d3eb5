package transform

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/handler"
	"github.com/chazu/classforge/remap"
	"github.com/chazu/classforge/target"
)

// TransformClass runs the full pipeline against one already-decoded
// target class: clone each registered transformer, remap it against
// target's current identifiers, then run the thirteen handlers in fixed
// order. It mirrors TransformerManager#transform(String, byte[]) from the
// original, minus the raw-bytecode-transformer and byte-decoding steps,
// which TransformBytes layers on top of this.
//
// It returns the (possibly mutated in place) target, whether at least one
// transformer ran through the pipeline without being aborted, and an error only for a fault that Fail's strategy says
// should abort the whole class (Cancel) — Continue-strategy faults are
// logged and swallowed so the remaining transformers still run.
func (m *Manager) TransformClass(name string, target *classfile.ClassNode) (*classfile.ClassNode, bool, error) {
	transformers := m.Registry.Transformers(name)
	if len(transformers) == 0 {
		return target, false, nil
	}

	callback := handler.NewCallbackClass()
	changed := false
	sessionID := uuid.New().String()

	for _, transformer := range transformers {
		clone := classfile.CloneClass(transformer)
		if warnings := remap.Remap(clone, m.Remapper); len(warnings) > 0 {
			for _, w := range warnings {
				m.logger().Warn("%v", w)
			}
		}

		ctx := m.newContext(callback)
		aborted, err := m.runHandlers(sessionID, ctx, target, clone)
		if aborted {
			if err != nil && m.Fail == Cancel {
				return target, changed, err
			}
			continue
		}
		changed = true
	}

	return target, changed, nil
}

// runHandlers runs every handler in m.Handlers against (target,
// transformer) in order, applying the fail-strategy propagation policy of
// spec.md §7: a TransformerShapeError/InvalidTargetError/TargetNotFoundError
// always aborts this transformer-on-target pair (reported with its hint);
// any other failure instead respects Fail. It returns whether the pair was
// aborted and, if Fail is Cancel, the error that caused the abort.
func (m *Manager) runHandlers(sessionID string, ctx *handler.Context, target, transformer *classfile.ClassNode) (aborted bool, abortErr error) {
	for _, h := range m.Handlers {
		outcome := m.runOneHandler(h, ctx, target, transformer)
		switch outcome.Result {
		case handler.Applied, handler.Skipped:
			continue
		case handler.Failed:
			if isShapeOrTargetError(outcome.Err) {
				m.logger().ErrorErr(outcome.Err, "%s: %s aborted on %s", h.Name(), transformer.Name, target.Name)
				m.audit(sessionID, h.Name(), transformer.Name, target.Name, outcome.Err.Error(), "cancel")
				return true, nil
			}
			fault := &HandlerFault{Handler: h.Name(), Transformer: transformer.Name, Target: target.Name, Err: outcome.Err}
			switch m.Fail {
			case Continue:
				m.logger().ErrorErr(fault, "continuing after handler fault")
				m.audit(sessionID, h.Name(), transformer.Name, target.Name, fault.Error(), "continue")
				continue
			case Cancel:
				m.logger().ErrorErr(fault, "cancelling class after handler fault")
				m.audit(sessionID, h.Name(), transformer.Name, target.Name, fault.Error(), "cancel")
				return true, fault
			case Exit:
				m.audit(sessionID, h.Name(), transformer.Name, target.Name, fault.Error(), "exit")
				m.logger().Fatal("%v", fault)
				panic(fault) // Fatal never returns in a real logging.Logger; panic is the fallback if it does.
			}
		}
	}
	return false, nil
}

// audit records a fault via m.Audit if one is configured. Audit is optional,
// unlike Log, since a Manager with no AuditSink simply has no durable trail.
func (m *Manager) audit(sessionID, handlerName, transformerName, targetName, message, decision string) {
	if m.Audit != nil {
		m.Audit.Record(sessionID, handlerName, transformerName, targetName, message, decision)
	}
}

// runOneHandler calls h.Apply, converting any panic into a Failed outcome
// wrapping a HandlerFault — spec.md §9.3's "pipeline never panics across a
// handler boundary".
func (m *Manager) runOneHandler(h handler.Handler, ctx *handler.Context, target, transformer *classfile.ClassNode) (outcome handler.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = handler.Outcome{
				Result: handler.Failed,
				Err:    &HandlerFault{Handler: h.Name(), Transformer: transformer.Name, Target: target.Name, Err: fmt.Errorf("panic: %v", r)},
			}
		}
	}()
	return h.Apply(ctx, target, transformer)
}

// isShapeOrTargetError reports whether err is one of the three directive
// errors spec.md §7's propagation policy always aborts on, regardless of
// fail strategy: TransformerShapeError, InvalidTarget, TargetNotFound.
func isShapeOrTargetError(err error) bool {
	switch err.(type) {
	case *handler.ShapeError, *target.InvalidTargetError, *target.TargetNotFoundError:
		return true
	default:
		return false
	}
}
