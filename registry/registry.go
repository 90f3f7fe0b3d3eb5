// Package registry holds the process-wide transformer registries of
// spec.md §3: target class name -> ordered transformer class ASTs,
// target class name -> raw transformers, and the derived name sets the
// transformation pipeline consults to decide what to retransform. It is
// the content-addressed-store shape of the teacher's vm.ContentStore,
// generalized from hash keys to class-name keys and from a flat value to
// an ordered list per key (spec.md §3 invariant 1: "within each handler,
// transformers run in the order registered").
package registry

import (
	"sync"

	"github.com/chazu/classforge/classfile"
)

// RawTransformer is a transformer registered against one specific target
// class that mutates its AST directly rather than through the
// annotation-driven handler pipeline (spec.md §3's rawTransformers list;
// grounded on the original's IRawTransformer, which receives the already
// ASM-parsed ClassNode rather than raw bytes).
type RawTransformer interface {
	Name() string
	Transform(class *classfile.ClassNode) error
}

// Registry is the single coarse-locked process-wide store (spec.md §5:
// "registry reads acquire a shared lock, mutations acquire an exclusive
// lock"). All of its maps are protected by one mutex because mutations
// only happen at framework startup or on hotswap, and every read must see
// a consistent snapshot across all four maps at once.
type Registry struct {
	mu sync.RWMutex

	transformers    map[string][]*classfile.ClassNode
	rawTransformers map[string][]RawTransformer
	names           map[string]bool // registeredTransformerNames
	targets         map[string]bool // transformedTargetNames
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		transformers:    make(map[string][]*classfile.ClassNode),
		rawTransformers: make(map[string][]RawTransformer),
		names:           make(map[string]bool),
		targets:         make(map[string]bool),
	}
}

// PutTransformer registers class against target, replacing any
// previously registered transformer of the same name against the same
// target (spec.md §8: "Registering the same transformer class twice
// against the same target does not duplicate its effects").
func (r *Registry) PutTransformer(target string, class *classfile.ClassNode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.transformers[target]
	for i, existing := range list {
		if existing.Name == class.Name {
			list[i] = class
			r.names[class.Name] = true
			r.targets[target] = true
			return
		}
	}
	r.transformers[target] = append(list, class)
	r.names[class.Name] = true
	r.targets[target] = true
}

// PutRawTransformer registers a raw transformer against target.
func (r *Registry) PutRawTransformer(target string, rt RawTransformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.rawTransformers[target]
	for i, existing := range list {
		if existing.Name() == rt.Name() {
			list[i] = rt
			r.targets[target] = true
			return
		}
	}
	r.rawTransformers[target] = append(list, rt)
	r.targets[target] = true
}

// Transformers returns the ordered transformer list registered against
// target, or nil. The returned slice is a copy; callers may range over it
// without holding the registry's lock.
func (r *Registry) Transformers(target string) []*classfile.ClassNode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.transformers[target]
	if len(list) == 0 {
		return nil
	}
	out := make([]*classfile.ClassNode, len(list))
	copy(out, list)
	return out
}

// RawTransformers returns the ordered raw-transformer list registered
// against target, or nil.
func (r *Registry) RawTransformers(target string) []RawTransformer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.rawTransformers[target]
	if len(list) == 0 {
		return nil
	}
	out := make([]RawTransformer, len(list))
	copy(out, list)
	return out
}

// IsTransformed reports whether target has any transformer or raw
// transformer registered against it — spec.md §3 invariant 4: "A target
// class is retransformed only if at least one transformer or raw
// transformer is registered against its name."
func (r *Registry) IsTransformed(target string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.targets[target]
}

// IsRegisteredTransformerName reports whether name has ever been
// registered as a transformer class, independent of which target(s) it
// is registered against.
func (r *Registry) IsRegisteredTransformerName(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[name]
}

// RemoveTransformer drops class named name from target's transformer
// list, used by hotswap when a transformer's new target set no longer
// includes target.
func (r *Registry) RemoveTransformer(target, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.transformers[target]
	for i, existing := range list {
		if existing.Name == name {
			r.transformers[target] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.transformers[target]) == 0 && len(r.rawTransformers[target]) == 0 {
		delete(r.targets, target)
	}
}

// TargetNames returns every target class name that currently has at
// least one transformer or raw transformer registered — the retransform
// scope spec.md §3's transformedTargetNames set exists for.
func (r *Registry) TargetNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.targets))
	for name := range r.targets {
		out = append(out, name)
	}
	return out
}
