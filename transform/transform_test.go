package transform

import (
	"fmt"
	"testing"

	"github.com/chazu/classforge/classfile"
	"github.com/chazu/classforge/registry"
)

// fakeCodec stores classes by name rather than actually serializing to JVM
// bytecode (the real ClassCodec is "assumed available" per spec.md §1); it
// round-trips through a byte-keyed map so Encode/Decode stay inverses for
// the purposes of exercising the pipeline around them.
type fakeCodec struct {
	byKey map[string]*classfile.ClassNode
	seq   int
}

func newFakeCodec() *fakeCodec { return &fakeCodec{byKey: make(map[string]*classfile.ClassNode)} }

func (f *fakeCodec) Decode(bytecode []byte) (*classfile.ClassNode, error) {
	key := string(bytecode)
	c, ok := f.byKey[key]
	if !ok {
		return nil, fmt.Errorf("fakeCodec: unknown key %q", key)
	}
	return classfile.CloneClass(c), nil
}

func (f *fakeCodec) Encode(class *classfile.ClassNode) ([]byte, error) {
	f.seq++
	key := fmt.Sprintf("%s#%d", class.Name, f.seq)
	f.byKey[key] = classfile.CloneClass(class)
	return []byte(key), nil
}

// register stores c under a fresh key and returns the bytes TransformBytes
// should be called with to retrieve it.
func (f *fakeCodec) register(c *classfile.ClassNode) []byte {
	f.seq++
	key := fmt.Sprintf("%s#%d", c.Name, f.seq)
	f.byKey[key] = c
	return []byte(key)
}

type fakeLogger struct {
	fatalCalled bool
}

func (f *fakeLogger) Info(string, ...interface{})  {}
func (f *fakeLogger) Warn(string, ...interface{})  {}
func (f *fakeLogger) Error(string, ...interface{}) {}
func (f *fakeLogger) Fatal(string, ...interface{}) { f.fatalCalled = true }
func (f *fakeLogger) WarnErr(error, string, ...interface{})  {}
func (f *fakeLogger) ErrorErr(error, string, ...interface{}) {}

type fakeAudit struct {
	records []string
}

func (f *fakeAudit) Record(sessionID, handlerName, transformerName, targetName, message, decision string) {
	f.records = append(f.records, handlerName+":"+decision)
}

func targetWithOneReturn(name string) *classfile.ClassNode {
	c := classfile.NewClassNode(name, "java/lang/Object")
	m := classfile.NewMethodNode(classfile.AccPublic, "greet", "()V")
	m.Instructions.Append(&classfile.Insn{Op: classfile.OpReturn})
	c.Methods = append(c.Methods, m)
	return c
}

func TestTransformBytes_NoOpWhenNothingRegistered(t *testing.T) {
	m := New(registry.New())
	codec := newFakeCodec()
	m.Codec = codec
	target := targetWithOneReturn("com/acme/Target")
	key := codec.register(target)

	out, err := m.TransformBytes("com/acme/Target", key)
	if err != nil {
		t.Fatalf("TransformBytes failed: %v", err)
	}
	if out != nil {
		t.Fatal("expected nil bytecode when nothing is registered against the target")
	}
}

func TestTransformBytes_RunsRawTransformer(t *testing.T) {
	m := New(registry.New())
	codec := newFakeCodec()
	m.Codec = codec
	target := targetWithOneReturn("com/acme/Target")
	key := codec.register(target)

	m.Registry.PutRawTransformer("com/acme/Target", rawAddNop{name: "addNop"})

	out, err := m.TransformBytes("com/acme/Target", key)
	if err != nil {
		t.Fatalf("TransformBytes failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected non-nil bytecode after a raw transformer ran")
	}
	decoded, err := codec.Decode(out)
	if err != nil {
		t.Fatalf("decoding result failed: %v", err)
	}
	if decoded.Methods[0].Instructions.Size() != 2 {
		t.Fatalf("expected the raw transformer's extra instruction, got %d instructions", decoded.Methods[0].Instructions.Size())
	}
}

func TestTransformBytes_FailStrategyContinueSwallowsHandlerFault(t *testing.T) {
	m := New(registry.New())
	log := &fakeLogger{}
	m.Log = log
	m.Fail = Continue
	codec := newFakeCodec()
	m.Codec = codec

	target := classfile.NewClassNode("com/acme/Target", "java/lang/Object")
	key := codec.register(target)

	// A @CShadow field with no matching target field triggers a
	// TransformerShapeError, which always aborts this transformer-on-target
	// pair regardless of Fail, but must never abort the whole TransformBytes
	// call.
	mixin := classfile.NewClassNode("com/acme/Mixin", "java/lang/Object")
	mixin.Fields = append(mixin.Fields, &classfile.FieldNode{
		Name: "missing", Desc: "I",
		Annotations: []*classfile.Annotation{{Desc: "Lclassforge/annotation/CShadow;"}},
	})
	m.Registry.PutTransformer("com/acme/Target", mixin)

	out, err := m.TransformBytes("com/acme/Target", key)
	if err != nil {
		t.Fatalf("TransformBytes must not error under Continue, got: %v", err)
	}
	_ = out
	if log.fatalCalled {
		t.Fatal("Continue strategy must not call Fatal")
	}
}

func TestTransform_NeverPanicsOrErrorsToHost(t *testing.T) {
	m := New(registry.New())
	m.Log = &fakeLogger{}
	// Deliberately no Codec configured, but something is registered, so
	// TransformBytes would return an error internally — Transform must
	// swallow it rather than propagate or panic.
	m.Registry.PutRawTransformer("com/acme/Target", rawAddNop{name: "addNop"})

	out := m.Transform(nil, "com/acme/Target", nil, nil, []byte("whatever"))
	if out != nil {
		t.Fatal("expected nil output when the core cannot actually transform")
	}
}

func TestTransform_ReentrancyGuardBacksOff(t *testing.T) {
	m := New(registry.New())
	m.Log = &fakeLogger{}
	m.inflight.Store("com/acme/Target", struct{}{})

	out := m.Transform(nil, "com/acme/Target", nil, nil, []byte("whatever"))
	if out != nil {
		t.Fatal("expected nil output for a re-entrant call on a class already in flight")
	}
}

type rawAddNop struct{ name string }

func (r rawAddNop) Name() string { return r.name }
func (r rawAddNop) Transform(class *classfile.ClassNode) error {
	if len(class.Methods) == 0 {
		return nil
	}
	class.Methods[0].Instructions.InsertBefore(class.Methods[0].Instructions.First(), &classfile.Insn{Op: classfile.OpNop})
	return nil
}
