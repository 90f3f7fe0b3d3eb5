package remap

import "github.com/chazu/classforge/classfile"

// Remap rewrites every class/method/field reference inside c — its own
// name, superclass, interfaces, member declarations, instruction bodies,
// and annotations — against r, mutating c in place. It returns any
// MappingError warnings encountered (owner class mapped, member not);
// these never abort the rewrite per spec.md §7.
//
// Remap is idempotent (spec.md §3 invariant 2, §8 testable property):
// r's maps are keyed by the transformer's original identifiers, so
// running Remap twice in a row finds no further matches the second time
// and leaves c unchanged.
func Remap(c *classfile.ClassNode, r *Remapper) []error {
	var warnings []error

	origName := c.Name
	c.Name = r.MapClassName(c.Name)
	c.SuperName = r.MapClassName(c.SuperName)
	for i, iface := range c.Interfaces {
		c.Interfaces[i] = r.MapClassName(iface)
	}
	remapAnnotations(c.Annotations, r)

	for _, f := range c.Fields {
		f.Desc = r.MapDesc(f.Desc)
		remapAnnotations(f.Annotations, r)
	}

	for _, m := range c.Methods {
		m.Desc = r.MapDesc(m.Desc)
		remapAnnotations(m.Annotations, r)
		for _, anns := range m.ParamAnnotations {
			remapAnnotations(anns, r)
		}
		for _, lv := range m.LocalVars {
			lv.Desc = r.MapDesc(lv.Desc)
		}
		for _, tc := range m.TryCatch {
			if tc.Type != "" {
				tc.Type = r.MapClassName(tc.Type)
			}
		}
		m.Instructions.Each(func(n *classfile.InsnNode) {
			warnings = append(warnings, remapInstructionWarnings(n.Insn, r)...)
		})
	}

	_ = origName
	return warnings
}

func remapInstructionWarnings(insn classfile.Instruction, r *Remapper) []error {
	var warnings []error
	switch ins := insn.(type) {
	case *classfile.FieldInsn:
		mappedOwner := r.MapClassName(ins.Owner)
		mappedName := r.MapFieldName(ins.Owner, ins.Name, ins.Desc)
		if mappedOwner != ins.Owner && mappedName == ins.Name {
			warnings = append(warnings, &MappingError{Owner: ins.Owner, Member: ins.Name, Kind: "field"})
		}
		ins.Owner = mappedOwner
		ins.Name = mappedName
		ins.Desc = r.MapDesc(ins.Desc)
	case *classfile.MethodInsn:
		mappedOwner := r.MapClassName(ins.Owner)
		mappedName := r.MapMethodName(ins.Owner, ins.Name, ins.Desc)
		if mappedOwner != ins.Owner && mappedName == ins.Name {
			warnings = append(warnings, &MappingError{Owner: ins.Owner, Member: ins.Name, Kind: "method"})
		}
		ins.Owner = mappedOwner
		ins.Name = mappedName
		ins.Desc = r.MapDesc(ins.Desc)
	case *classfile.TypeInsn:
		ins.Type = r.MapClassName(ins.Type)
	case *classfile.LdcInsn:
		if tv, ok := ins.Value.(*classfile.TypeValue); ok {
			tv.Desc = r.MapDesc(tv.Desc)
		}
	}
	return warnings
}

func remapAnnotations(anns []*classfile.Annotation, r *Remapper) {
	for _, a := range anns {
		a.Desc = r.MapDesc(a.Desc)
		for k, v := range a.Values {
			a.Values[k] = remapAnnotationValue(v, r)
		}
	}
}

func remapAnnotationValue(v interface{}, r *Remapper) interface{} {
	switch t := v.(type) {
	case *classfile.TypeValue:
		t.Desc = r.MapDesc(t.Desc)
		return t
	case *classfile.Annotation:
		remapAnnotations([]*classfile.Annotation{t}, r)
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = remapAnnotationValue(e, r)
		}
		return t
	default:
		return v
	}
}
