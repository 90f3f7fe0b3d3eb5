package transform

import (
	"fmt"
	"strings"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/handler"
	"github.com/chazu/classforge/registry"
)

// AddTransformerClass registers an already-decoded transformer class
// directly (spec.md §6 "bare class name registers one"). It requires the
// class to carry a @CTransformer annotation; a class missing it raises,
// matching the original's addTransformer(ClassNode) contract.
func (m *Manager) AddTransformerClass(class *classfile.ClassNode) ([]string, error) {
	targets, ok := handler.TransformerTargets(class)
	if !ok {
		return nil, &handler.ShapeError{
			Transformer: class.Name,
			Message:     "missing @CTransformer annotation",
			Hint:        "annotate the class with @CTransformer(value = Target.class) naming its target",
		}
	}
	if len(targets) == 0 {
		m.logger().Warn("transformer %q does not transform any classes", class.Name)
	}
	for _, t := range targets {
		m.Registry.PutTransformer(t, class)
	}
	m.explicit.Store(class.Name, struct{}{})
	return targets, nil
}

// AddTransformer registers a transformer by pattern against m.Provider,
// the three forms spec.md §6 "Wildcard registration" describes:
//   - a bare name ("pkg/Transformer") decodes and registers that one
//     class directly; missing the @CTransformer annotation raises.
//   - "pkg/*" enumerates pkg's direct children only.
//   - "pkg/**" enumerates pkg and every descendant package.
//
// Wildcard matches that lack the annotation are silently skipped (spec.md
// §6); a wildcard match that was also registered explicitly is skipped
// too, so a later wildcard sweep never fights an explicit registration
// (spec.md §11, "Wildcard registration de-duplication").
func (m *Manager) AddTransformer(pattern string) ([]string, error) {
	switch {
	case strings.HasSuffix(pattern, "/**"):
		return m.addTransformerWildcard(strings.TrimSuffix(pattern, "/**"), true)
	case strings.HasSuffix(pattern, "/*"):
		return m.addTransformerWildcard(strings.TrimSuffix(pattern, "/*"), false)
	default:
		return m.addTransformerBare(pattern)
	}
}

func (m *Manager) addTransformerBare(name string) ([]string, error) {
	if m.Provider == nil {
		return nil, fmt.Errorf("transform: AddTransformer(%q): no ClassProvider configured", name)
	}
	bytecode, err := m.Provider.GetClass(name)
	if err != nil {
		return nil, fmt.Errorf("transform: cannot load transformer %q: %w", name, err)
	}
	class, err := m.Codec.Decode(bytecode)
	if err != nil {
		return nil, fmt.Errorf("transform: cannot parse transformer %q: %w", name, err)
	}
	return m.AddTransformerClass(class)
}

func (m *Manager) addTransformerWildcard(pkg string, recursive bool) ([]string, error) {
	if m.Provider == nil {
		return nil, fmt.Errorf("transform: AddTransformer(%q): no ClassProvider configured", pkg+"/*")
	}
	all, err := m.Provider.GetAllClasses()
	if err != nil {
		return nil, fmt.Errorf("transform: cannot enumerate classes for wildcard %q: %w", pkg, err)
	}
	prefix := pkg + "/"
	var allTargets []string
	for name, fetch := range all {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !recursive && strings.Contains(name[len(prefix):], "/") {
			continue // "pkg/*" does not descend into sub-packages
		}
		if _, explicit := m.explicit.Load(name); explicit {
			continue
		}
		bytecode, err := fetch()
		if err != nil {
			m.logger().WarnErr(err, "wildcard %q: cannot fetch %q", pkg, name)
			continue
		}
		class, err := m.Codec.Decode(bytecode)
		if err != nil {
			m.logger().WarnErr(err, "wildcard %q: cannot parse %q", pkg, name)
			continue
		}
		targets, ok := handler.TransformerTargets(class)
		if !ok {
			continue // wildcard registrations silently skip non-transformer classes
		}
		for _, t := range targets {
			m.Registry.PutTransformer(t, class)
		}
		allTargets = append(allTargets, targets...)
	}
	return allTargets, nil
}

// AddRawTransformer registers rt against a single target class directly
// (spec.md §3 rawTransformers; the original's addRawTransformer is
// likewise a single-target, no-wildcard API).
func (m *Manager) AddRawTransformer(target string, rt registry.RawTransformer) {
	m.Registry.PutRawTransformer(target, rt)
}
