package classfile

// CloneClass deep-copies a class node, including every method's
// instruction list, try/catch blocks, and local-variable table. Per
// spec.md §3 invariant 3, the transformer manager clones a registered
// transformer class once per target application; the registry's own copy
// is never mutated.
func CloneClass(c *ClassNode) *ClassNode {
	out := &ClassNode{
		Access:      c.Access,
		Name:        c.Name,
		SuperName:   c.SuperName,
		Interfaces:  append([]string(nil), c.Interfaces...),
		Annotations: cloneAnnotations(c.Annotations),
	}
	for _, f := range c.Fields {
		out.Fields = append(out.Fields, cloneField(f))
	}
	for _, m := range c.Methods {
		out.Methods = append(out.Methods, CloneMethod(m))
	}
	for _, ic := range c.InnerClasses {
		cp := *ic
		out.InnerClasses = append(out.InnerClasses, &cp)
	}
	return out
}

func cloneField(f *FieldNode) *FieldNode {
	return &FieldNode{
		Access:      f.Access,
		Name:        f.Name,
		Desc:        f.Desc,
		Signature:   f.Signature,
		Annotations: cloneAnnotations(f.Annotations),
	}
}

// CloneMethod deep-copies a single method, including its instruction list
// with internally-consistent cloned labels.
func CloneMethod(m *MethodNode) *MethodNode {
	labels := make(map[*LabelInsn]*LabelInsn)
	out := &MethodNode{
		Access:           m.Access,
		Name:             m.Name,
		Desc:             m.Desc,
		Signature:        m.Signature,
		MaxLocals:        m.MaxLocals,
		MaxStack:         m.MaxStack,
		Annotations:      cloneAnnotations(m.Annotations),
		ParamAnnotations: cloneParamAnnotations(m.ParamAnnotations),
	}
	if m.Instructions != nil {
		out.Instructions = m.Instructions.Clone(labels)
	} else {
		out.Instructions = &InsnList{}
	}
	for _, tc := range m.TryCatch {
		out.TryCatch = append(out.TryCatch, cloneTryCatch(tc, labels))
	}
	for _, lv := range m.LocalVars {
		out.LocalVars = append(out.LocalVars, cloneLocalVar(lv, labels))
	}
	return out
}

func cloneTryCatch(tc *TryCatchBlockNode, labels map[*LabelInsn]*LabelInsn) *TryCatchBlockNode {
	return &TryCatchBlockNode{
		Start:     mapLabel(tc.Start, labels),
		End:       mapLabel(tc.End, labels),
		Handler:   mapLabel(tc.Handler, labels),
		Type:      tc.Type,
		Synthetic: tc.Synthetic,
	}
}

func cloneLocalVar(lv *LocalVariableNode, labels map[*LabelInsn]*LabelInsn) *LocalVariableNode {
	return &LocalVariableNode{
		Name:  lv.Name,
		Desc:  lv.Desc,
		Index: lv.Index,
		Start: mapLabel(lv.Start, labels),
		End:   mapLabel(lv.End, labels),
	}
}

func mapLabel(l *LabelInsn, labels map[*LabelInsn]*LabelInsn) *LabelInsn {
	if l == nil {
		return nil
	}
	if mapped, ok := labels[l]; ok {
		return mapped
	}
	// Label never appeared in the instruction list we already cloned
	// (can happen for a local-variable table entry whose scope end is the
	// method's implicit end label); clone it standalone and remember it.
	c := &LabelInsn{name: l.name}
	labels[l] = c
	return c
}

func cloneAnnotations(in []*Annotation) []*Annotation {
	if in == nil {
		return nil
	}
	out := make([]*Annotation, len(in))
	for i, a := range in {
		out[i] = cloneAnnotation(a)
	}
	return out
}

func cloneAnnotation(a *Annotation) *Annotation {
	values := make(map[string]interface{}, len(a.Values))
	for k, v := range a.Values {
		values[k] = cloneAnnotationValue(v)
	}
	return &Annotation{Desc: a.Desc, Values: values}
}

func cloneAnnotationValue(v interface{}) interface{} {
	switch t := v.(type) {
	case *TypeValue:
		c := *t
		return &c
	case *Annotation:
		return cloneAnnotation(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneAnnotationValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneParamAnnotations(in ParameterAnnotations) ParameterAnnotations {
	if in == nil {
		return nil
	}
	out := make(ParameterAnnotations, len(in))
	for k, v := range in {
		out[k] = cloneAnnotations(v)
	}
	return out
}
