// Package remap implements the mapping engine of spec.md §4.4: a
// Remapper that maps class, method, and field identifiers forward and in
// reverse, and a rewriter that applies a Remapper to a classfile.ClassNode
// in place.
package remap

import "sync"

// Remapper wraps a mutable set of identifier maps keyed the way spec.md
// §4.4 specifies:
//   - class:  internal name
//   - method: "owner.name(desc)returnDesc"
//   - field:  "owner.name:desc" (desc may be "" to match any descriptor)
//
// All mutation and lookup goes through one RWMutex, the same coarse-lock
// shape the teacher uses for its content-addressed stores
// (vm/content_store.go).
type Remapper struct {
	mu sync.RWMutex

	classes map[string]string
	methods map[string]string
	fields  map[string]string

	reverseCache *Remapper
}

// New creates an empty Remapper.
func New() *Remapper {
	return &Remapper{
		classes: make(map[string]string),
		methods: make(map[string]string),
		fields:  make(map[string]string),
	}
}

// PutClass records a forward class mapping and invalidates the reverse
// cache.
func (r *Remapper) PutClass(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[from] = to
	r.reverseCache = nil
}

// PutMethod records a forward method mapping, keyed by
// "owner.name(desc)returnDesc", and invalidates the reverse cache.
func (r *Remapper) PutMethod(owner, name, desc, toName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[owner+"."+name+desc] = toName
	r.reverseCache = nil
}

// PutField records a forward field mapping, keyed by "owner.name:desc"
// (desc == "" matches any descriptor), and invalidates the reverse cache.
func (r *Remapper) PutField(owner, name, desc, toName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := owner + "." + name
	if desc != "" {
		key += ":" + desc
	}
	r.fields[key] = toName
	r.reverseCache = nil
}

// MapClassName maps an internal class name, or returns it unchanged if no
// mapping is registered.
func (r *Remapper) MapClassName(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if to, ok := r.classes[name]; ok {
		return to
	}
	return name
}

// MapMethodName maps a method name given its owner and descriptor, or
// returns name unchanged.
func (r *Remapper) MapMethodName(owner, name, desc string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if to, ok := r.methods[owner+"."+name+desc]; ok {
		return to
	}
	return name
}

// MapFieldName maps a field name given its owner and descriptor (which may
// be "" to look up a wildcard-descriptor mapping), or returns name
// unchanged. An exact-descriptor mapping takes priority over a wildcard
// one.
func (r *Remapper) MapFieldName(owner, name, desc string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if desc != "" {
		if to, ok := r.fields[owner+"."+name+":"+desc]; ok {
			return to
		}
	}
	if to, ok := r.fields[owner+"."+name]; ok {
		return to
	}
	return name
}

// MapDesc rewrites every object/array-of-object type occurring in a field
// or method descriptor, mapping each internal class name it finds.
func (r *Remapper) MapDesc(desc string) string {
	return mapDescriptor(desc, r.MapClassName)
}

// MapSafe maps an arbitrary "kind:key" identity through whichever map
// matches kind, falling back to the identity function for unknown kinds or
// unmapped keys — the identity-fallback escape hatch spec.md §4.4 calls
// mapSafe.
func (r *Remapper) MapSafe(kind, key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var table map[string]string
	switch kind {
	case "class":
		table = r.classes
	case "method":
		table = r.methods
	case "field":
		table = r.fields
	default:
		return key
	}
	if to, ok := table[key]; ok {
		return to
	}
	return key
}

// Reverse returns a Remapper with every mapping inverted, lazily built and
// cached until the next mutation (PutClass/PutMethod/PutField) invalidates
// it. Calling Reverse twice in a row between mutations returns the same
// cached instance.
func (r *Remapper) Reverse() *Remapper {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reverseCache != nil {
		return r.reverseCache
	}
	rev := New()
	for k, v := range r.classes {
		rev.classes[v] = k
	}
	for k, v := range r.methods {
		// k is "owner.name(desc)ret"; invert by swapping the registered
		// name but keeping the same owner/desc key shape so
		// MapMethodName(owner, mappedName, desc) resolves back.
		owner, name, desc := splitMethodKey(k)
		rev.methods[owner+"."+v+desc] = name
	}
	for k, v := range r.fields {
		owner, name, desc := splitFieldKey(k)
		key := owner + "." + v
		if desc != "" {
			key += ":" + desc
		}
		rev.fields[key] = name
	}
	r.reverseCache = rev
	return rev
}
