package classfile

import (
	"fmt"
	"strings"
)

// ParseError indicates a class file (or a descriptor/target string derived
// from one) could not be parsed.
type ParseError struct {
	Context string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classfile: parse error in %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("classfile: parse error in %s", e.Context)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ArgumentTypes splits a method descriptor "(ARGS)RET" into its argument
// descriptors, in order.
func ArgumentTypes(methodDesc string) ([]string, error) {
	i := strings.IndexByte(methodDesc, '(')
	j := strings.IndexByte(methodDesc, ')')
	if i != 0 || j < 0 || j >= len(methodDesc) {
		return nil, &ParseError{Context: methodDesc, Err: fmt.Errorf("malformed method descriptor")}
	}
	body := methodDesc[1:j]
	var out []string
	for len(body) > 0 {
		t, rest, err := consumeType(body)
		if err != nil {
			return nil, &ParseError{Context: methodDesc, Err: err}
		}
		out = append(out, t)
		body = rest
	}
	return out, nil
}

// ReturnType returns the return-type descriptor of a method descriptor.
func ReturnType(methodDesc string) (string, error) {
	j := strings.IndexByte(methodDesc, ')')
	if j < 0 || j+1 > len(methodDesc) {
		return "", &ParseError{Context: methodDesc, Err: fmt.Errorf("malformed method descriptor")}
	}
	return methodDesc[j+1:], nil
}

// consumeType reads one type descriptor from the front of s, returning the
// descriptor and the remainder.
func consumeType(s string) (desc string, rest string, err error) {
	if len(s) == 0 {
		return "", "", fmt.Errorf("empty type")
	}
	switch s[0] {
	case 'V', 'Z', 'B', 'C', 'S', 'I', 'F', 'J', 'D':
		return s[:1], s[1:], nil
	case 'L':
		k := strings.IndexByte(s, ';')
		if k < 0 {
			return "", "", fmt.Errorf("unterminated object type in %q", s)
		}
		return s[:k+1], s[k+1:], nil
	case '[':
		inner, rest, err := consumeType(s[1:])
		if err != nil {
			return "", "", err
		}
		return "[" + inner, rest, nil
	default:
		return "", "", fmt.Errorf("unexpected descriptor byte %q in %q", s[0], s)
	}
}

// InternalName strips the "L" and ";" from an object descriptor, returning
// the internal class name unchanged for non-object descriptors.
func InternalName(desc string) string {
	if len(desc) >= 2 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		return desc[1 : len(desc)-1]
	}
	return desc
}

// ObjectDescriptor wraps an internal class name as an object descriptor:
// "a/b/C" -> "La/b/C;".
func ObjectDescriptor(internalName string) string {
	return "L" + internalName + ";"
}

// DottedName converts an internal name ("a/b/C") to source form ("a.b.C").
func DottedName(internalName string) string {
	return strings.ReplaceAll(internalName, "/", ".")
}

// InternalNameFromDotted converts a dotted name ("a.b.C") to internal form
// ("a/b/C").
func InternalNameFromDotted(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/")
}

// MethodKey renders the canonical owner.name(desc)ret key used by the
// remapper and by target strings: "owner.name(desc)ret".
func MethodKey(owner, name, desc string) string {
	return owner + "." + name + desc
}

// FieldKey renders the canonical owner.name:desc key. desc may be empty to
// mean "match any descriptor".
func FieldKey(owner, name, desc string) string {
	if desc == "" {
		return owner + "." + name
	}
	return owner + "." + name + ":" + desc
}
