package remap

import "strings"

// mapDescriptor rewrites every "Lowner;" object-type occurrence within a
// field or method descriptor by passing owner through mapClass. It
// handles both field descriptors (a single type) and method descriptors
// ("(args)ret") uniformly by scanning byte-by-byte.
func mapDescriptor(desc string, mapClass func(string) string) string {
	var b strings.Builder
	i := 0
	for i < len(desc) {
		c := desc[i]
		switch c {
		case 'L':
			j := strings.IndexByte(desc[i:], ';')
			if j < 0 {
				b.WriteString(desc[i:])
				i = len(desc)
				continue
			}
			owner := desc[i+1 : i+j]
			b.WriteByte('L')
			b.WriteString(mapClass(owner))
			b.WriteByte(';')
			i += j + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// splitMethodKey splits a "owner.name(desc)ret" key into its parts.
func splitMethodKey(key string) (owner, name, desc string) {
	dot := strings.IndexByte(key, '.')
	if dot < 0 {
		return "", key, ""
	}
	owner = key[:dot]
	rest := key[dot+1:]
	paren := strings.IndexByte(rest, '(')
	if paren < 0 {
		return owner, rest, ""
	}
	return owner, rest[:paren], rest[paren:]
}

// splitFieldKey splits a "owner.name" or "owner.name:desc" key into its
// parts.
func splitFieldKey(key string) (owner, name, desc string) {
	dot := strings.IndexByte(key, '.')
	if dot < 0 {
		return "", key, ""
	}
	owner = key[:dot]
	rest := key[dot+1:]
	if colon := strings.IndexByte(rest, ':'); colon >= 0 {
		return owner, rest[:colon], rest[colon+1:]
	}
	return owner, rest, ""
}
