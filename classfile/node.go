package classfile

// Access flags, a subset of JVMS Table 4.1-A/4.5-A/4.6-A relevant to the
// handlers (visibility + static + synthetic + abstract).
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccSuper     = 0x0020
	AccInterface = 0x0200
	AccAbstract  = 0x0400
	AccSynthetic = 0x1000
	AccAnnotation = 0x2000
	AccEnum      = 0x4000
)

// Annotation is a class-, method-, field-, or parameter-level annotation.
// Values are either Go primitives (string, int64, float64, bool),
// *TypeValue (a class-literal-typed annotation element, subject to
// remapping per spec.md §4.4), []interface{} for arrays, or nested
// *Annotation for annotation-typed elements.
type Annotation struct {
	Desc   string // annotation type descriptor, e.g. "Lpkg/Inject;"
	Values map[string]interface{}
}

// TypeValue marks an annotation element whose value is a class literal
// ("Type"-typed in spec.md §3), as opposed to a raw string naming a class.
// Remapping rewrites TypeValue.Desc; plain string elements are never
// rewritten, including strings that name a class or a target member.
type TypeValue struct {
	Desc string // e.g. "Lpkg/Target;"
}

// FieldNode is a class field.
type FieldNode struct {
	Access      int
	Name        string
	Desc        string
	Signature   string
	Annotations []*Annotation
}

func (f *FieldNode) IsStatic() bool { return f.Access&AccStatic != 0 }

// LocalVariableNode is one entry of a method's local-variable table.
type LocalVariableNode struct {
	Name       string
	Desc       string
	Index      int
	Start, End *LabelInsn
}

// TryCatchBlockNode is one try/catch region.
type TryCatchBlockNode struct {
	Start, End, Handler *LabelInsn
	Type                string // internal name of the caught exception type, "" for finally
	// Synthetic marks a handler the framework itself inserted (by
	// WrapCatch); THROW target resolution excludes rethrows inside these
	// per spec.md §9's open question about re-injection.
	Synthetic bool
}

// ParameterAnnotations holds per-parameter annotation lists, indexed by
// parameter position.
type ParameterAnnotations map[int][]*Annotation

// MethodNode is a method body.
type MethodNode struct {
	Access    int
	Name      string
	Desc      string
	Signature string

	Instructions *InsnList
	TryCatch     []*TryCatchBlockNode
	LocalVars    []*LocalVariableNode
	MaxLocals    int
	MaxStack     int

	Annotations      []*Annotation
	ParamAnnotations ParameterAnnotations
}

func (m *MethodNode) IsStatic() bool { return m.Access&AccStatic != 0 }
func (m *MethodNode) IsAbstract() bool { return m.Access&AccAbstract != 0 }

// NewMethodNode creates an empty method ready to receive instructions.
func NewMethodNode(access int, name, desc string) *MethodNode {
	return &MethodNode{
		Access:       access,
		Name:         name,
		Desc:         desc,
		Instructions: &InsnList{},
	}
}

// InnerClassNode is one entry of a class's InnerClasses attribute.
type InnerClassNode struct {
	Name            string // internal name of the inner class
	OuterName       string
	InnerSimpleName string
	Access          int
}

// ClassNode is a full class file, parsed into an editable AST.
type ClassNode struct {
	Access      int
	Name        string // internal name, e.g. "a/b/C"
	SuperName   string
	Interfaces  []string
	Fields      []*FieldNode
	Methods     []*MethodNode
	InnerClasses []*InnerClassNode

	Annotations []*Annotation
}

// NewClassNode creates an empty class.
func NewClassNode(name, superName string) *ClassNode {
	return &ClassNode{Name: name, SuperName: superName}
}

// FindMethod returns the method with the given name+descriptor, or nil.
func (c *ClassNode) FindMethod(name, desc string) *MethodNode {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}
	return nil
}

// FindField returns the field with the given name, or nil. If desc is
// non-empty it must also match.
func (c *ClassNode) FindField(name, desc string) *FieldNode {
	for _, f := range c.Fields {
		if f.Name == name && (desc == "" || f.Desc == desc) {
			return f
		}
	}
	return nil
}

// FindAnnotation returns the first annotation on c matching desc, or nil.
func (c *ClassNode) FindAnnotation(desc string) *Annotation {
	for _, a := range c.Annotations {
		if a.Desc == desc {
			return a
		}
	}
	return nil
}

// RemoveMethod removes the given method node from c.Methods, if present.
func (c *ClassNode) RemoveMethod(m *MethodNode) {
	for i, mm := range c.Methods {
		if mm == m {
			c.Methods = append(c.Methods[:i], c.Methods[i+1:]...)
			return
		}
	}
}
