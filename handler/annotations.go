package handler

import (
	"strings"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/target"
)

// Annotation type descriptors for the directive set spec.md §3 and §4.2
// describe. The annotation-parsing reflection glue that discovers these
// from a real class file's RuntimeVisibleAnnotations attribute is out of
// scope (spec.md §1); these handlers consume the already-parsed
// classfile.Annotation values the AST carries, exactly as the rest of the
// core operates on the AST rather than on raw class bytes.
const (
	descInject         = "Lclassforge/annotation/CInject;"
	descRedirect       = "Lclassforge/annotation/CRedirect;"
	descModifyConstant = "Lclassforge/annotation/CModifyConstant;"
	descWrapCatch      = "Lclassforge/annotation/CWrapCatch;"
	descOverride       = "Lclassforge/annotation/COverride;"
	descShadow         = "Lclassforge/annotation/CShadow;"
	descInline         = "Lclassforge/annotation/CInline;"
	descUpgrade        = "Lclassforge/annotation/CUpgrade;"
	descTransformer    = "Lclassforge/annotation/CTransformer;"
	descLocalVariable  = "Lclassforge/annotation/CLocalVariable;"
)

func findAnnotation(anns []*classfile.Annotation, desc string) *classfile.Annotation {
	for _, a := range anns {
		if a.Desc == desc {
			return a
		}
	}
	return nil
}

func strVal(a *classfile.Annotation, key string) string {
	if a == nil {
		return ""
	}
	if v, ok := a.Values[key].(string); ok {
		return v
	}
	return ""
}

func boolVal(a *classfile.Annotation, key string, def bool) bool {
	if a == nil {
		return def
	}
	if v, ok := a.Values[key].(bool); ok {
		return v
	}
	return def
}

func intVal(a *classfile.Annotation, key string, def int) int {
	if a == nil {
		return def
	}
	switch v := a.Values[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return def
}

func nestedAnn(a *classfile.Annotation, key string) *classfile.Annotation {
	if a == nil {
		return nil
	}
	n, _ := a.Values[key].(*classfile.Annotation)
	return n
}

// decodeTarget reads a nested @CTarget(value=kind, target=arg,
// shift=..., ordinal=..., optional=..., slice=@CSlice(from=...,to=...))
// annotation value into a *target.Descriptor.
func decodeTarget(a *classfile.Annotation) *target.Descriptor {
	if a == nil {
		return target.NewDescriptor(target.KindHead, "")
	}
	kind := target.Kind(strings.ToUpper(strVal(a, "value")))
	if kind == "" {
		kind = target.KindHead
	}
	d := target.NewDescriptor(kind, strVal(a, "target"))
	d.Optional = boolVal(a, "optional", false)
	d.Ordinal = intVal(a, "ordinal", -1)
	if s := strVal(a, "shift"); s != "" {
		d.Shift = decodeShift(s)
	}
	if slice := nestedAnn(a, "slice"); slice != nil {
		from := decodeTarget(nestedAnn(slice, "from"))
		to := decodeTarget(nestedAnn(slice, "to"))
		d.Slice = &target.SliceSpec{From: from, To: to}
	}
	return d
}

func decodeShift(s string) target.Shift {
	switch strings.ToUpper(s) {
	case "AFTER":
		return target.ShiftAfter
	case "TOP":
		return target.ShiftTop
	case "BOTTOM":
		return target.ShiftBottom
	default:
		return target.ShiftBefore
	}
}

// methodMatches reports whether m's name matches pattern. The core
// supports exact-name matching and a single trailing '*' wildcard (the
// common case of matching every overload of a name); a full signature
// pattern language is the annotation-parsing glue's concern, out of
// scope here.
func methodMatches(m *classfile.MethodNode, pattern string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(m.Name, strings.TrimSuffix(pattern, "*"))
	}
	return m.Name == pattern
}

// findTargetMethods returns every method of target whose name matches
// pattern.
func findTargetMethods(c *classfile.ClassNode, pattern string) []*classfile.MethodNode {
	var out []*classfile.MethodNode
	for _, m := range c.Methods {
		if methodMatches(m, pattern) {
			out = append(out, m)
		}
	}
	return out
}

// TransformerTargets reads class's @CTransformer annotation and returns
// the internal names of every class it names as a target, combining both
// the Type-valued "value" element and the string-valued "name" element
// (spec.md §6: a transformer may target one or more classes by either
// form). The second return value is false if class carries no
// @CTransformer annotation at all.
func TransformerTargets(class *classfile.ClassNode) ([]string, bool) {
	a := class.FindAnnotation(descTransformer)
	if a == nil {
		return nil, false
	}
	var out []string
	switch v := a.Values["value"].(type) {
	case []interface{}:
		for _, e := range v {
			if tv, ok := e.(*classfile.TypeValue); ok {
				out = append(out, classfile.InternalName(tv.Desc))
			}
		}
	case *classfile.TypeValue:
		out = append(out, classfile.InternalName(v.Desc))
	}
	switch v := a.Values["name"].(type) {
	case []interface{}:
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, classfile.InternalNameFromDotted(s))
			}
		}
	case string:
		out = append(out, classfile.InternalNameFromDotted(v))
	}
	return out, true
}
