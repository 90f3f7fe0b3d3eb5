package remap

import "testing"

func TestMapClassName_FallsBackToIdentity(t *testing.T) {
	r := New()
	if got := r.MapClassName("com/acme/Unmapped"); got != "com/acme/Unmapped" {
		t.Errorf("MapClassName with no registered mapping = %q, want unchanged", got)
	}
	r.PutClass("com/acme/Old", "com/acme/New")
	if got := r.MapClassName("com/acme/Old"); got != "com/acme/New" {
		t.Errorf("MapClassName = %q, want com/acme/New", got)
	}
}

func TestMapFieldName_ExactDescriptorTakesPriorityOverWildcard(t *testing.T) {
	r := New()
	r.PutField("com/acme/Target", "count", "", "renamedAny")
	r.PutField("com/acme/Target", "count", "I", "renamedInt")

	if got := r.MapFieldName("com/acme/Target", "count", "I"); got != "renamedInt" {
		t.Errorf("exact-descriptor mapping = %q, want renamedInt", got)
	}
	if got := r.MapFieldName("com/acme/Target", "count", "J"); got != "renamedAny" {
		t.Errorf("wildcard-descriptor mapping = %q, want renamedAny", got)
	}
}

func TestMapDesc_RewritesObjectAndArrayTypes(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Old", "com/acme/New")

	got := r.MapDesc("(Lcom/acme/Old;[Lcom/acme/Old;I)Lcom/acme/Old;")
	want := "(Lcom/acme/New;[Lcom/acme/New;I)Lcom/acme/New;"
	if got != want {
		t.Errorf("MapDesc = %q, want %q", got, want)
	}
}

func TestMapSafe_UnknownKindIsIdentity(t *testing.T) {
	r := New()
	if got := r.MapSafe("bogus", "anything"); got != "anything" {
		t.Errorf("MapSafe with unknown kind = %q, want unchanged", got)
	}
}

func TestReverse_InvertsClassMethodAndFieldMaps(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Old", "com/acme/New")
	r.PutMethod("com/acme/Old", "doThing", "()V", "renamedDoThing")
	r.PutField("com/acme/Old", "count", "I", "renamedCount")

	rev := r.Reverse()

	if got := rev.MapClassName("com/acme/New"); got != "com/acme/Old" {
		t.Errorf("reverse MapClassName = %q, want com/acme/Old", got)
	}
	if got := rev.MapMethodName("com/acme/Old", "renamedDoThing", "()V"); got != "doThing" {
		t.Errorf("reverse MapMethodName = %q, want doThing", got)
	}
	if got := rev.MapFieldName("com/acme/Old", "renamedCount", "I"); got != "count" {
		t.Errorf("reverse MapFieldName = %q, want count", got)
	}
}

func TestReverse_CachesUntilNextMutation(t *testing.T) {
	r := New()
	r.PutClass("com/acme/Old", "com/acme/New")

	first := r.Reverse()
	second := r.Reverse()
	if first != second {
		t.Fatal("Reverse should return the same cached instance between mutations")
	}

	r.PutClass("com/acme/Other", "com/acme/Other2")
	third := r.Reverse()
	if third == first {
		t.Fatal("a mutation must invalidate the cached reverse Remapper")
	}
}
