// Package snapshot persists the name-level topology of a registry.Registry
// to a local file so that a hotswap-enabled Manager knows, before any
// class has loaded, which target classes must be considered for
// retransformation on the next start. It never stores class bytecode,
// only names — the class nodes themselves stay in the in-memory registry.
//
// Grounded on vm/dist/wire.go's canonical-CBOR encode mode for
// deterministic wire objects: the same encoding mode is used here so two
// runs that register the same transformers in the same order produce a
// byte-identical snapshot file.
package snapshot

import (
	"fmt"
	"os"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/classforge/registry"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// RegistrySnapshot is the serializable topology of a registry.Registry:
// for each target class, the names of its registered transformers in
// registration order, plus the derived name sets.
type RegistrySnapshot struct {
	// TargetTransformers maps a target class's internal name to the
	// internal names of its registered transformer classes, in the same
	// order the registry holds them.
	TargetTransformers map[string][]string `cbor:"targets"`

	// RawTargets lists every target class with at least one raw
	// transformer registered.
	RawTargets []string `cbor:"raw_targets"`

	// TransformerNames lists every transformer class name currently
	// registered against at least one target, each name once.
	TransformerNames []string `cbor:"transformer_names"`
}

// Snapshot builds a RegistrySnapshot of reg's current topology. The
// registry's own lock protects the read; the result is a plain value, safe
// to encode without holding any lock. Targets are visited in sorted order,
// so the slices come out the same for the same registrations.
func Snapshot(reg *registry.Registry) *RegistrySnapshot {
	s := &RegistrySnapshot{TargetTransformers: make(map[string][]string)}
	targets := reg.TargetNames()
	sort.Strings(targets)
	seen := make(map[string]bool)
	for _, target := range targets {
		if classes := reg.Transformers(target); len(classes) > 0 {
			names := make([]string, len(classes))
			for i, c := range classes {
				names[i] = c.Name
				if !seen[c.Name] {
					seen[c.Name] = true
					s.TransformerNames = append(s.TransformerNames, c.Name)
				}
			}
			s.TargetTransformers[target] = names
		}
		if len(reg.RawTransformers(target)) > 0 {
			s.RawTargets = append(s.RawTargets, target)
		}
	}
	return s
}

// Marshal serializes s to canonical CBOR bytes.
func Marshal(s *RegistrySnapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a RegistrySnapshot from CBOR bytes.
func Unmarshal(data []byte) (*RegistrySnapshot, error) {
	var s RegistrySnapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}

// Store persists RegistrySnapshot values to and from a single file path.
type Store struct {
	Path string
}

// NewStore creates a Store backed by path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Save writes s to the store's path, creating or truncating the file.
func (st *Store) Save(s *RegistrySnapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := os.WriteFile(st.Path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", st.Path, err)
	}
	return nil
}

// Load reads and decodes the snapshot at the store's path. It returns
// (nil, nil) if the file does not exist yet — a fresh process has no prior
// snapshot to warm its cache from.
func (st *Store) Load() (*RegistrySnapshot, error) {
	data, err := os.ReadFile(st.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", st.Path, err)
	}
	return Unmarshal(data)
}

// TargetNames returns every target class name present in the snapshot,
// the set a hotswap-enabled Manager should consider for retransformation
// before ClassProvider.GetAllClasses() has been walked once.
func (s *RegistrySnapshot) TargetNames() []string {
	seen := make(map[string]bool, len(s.TargetTransformers)+len(s.RawTargets))
	for name := range s.TargetTransformers {
		seen[name] = true
	}
	for _, name := range s.RawTargets {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	return out
}
