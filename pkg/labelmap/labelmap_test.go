package labelmap

import "testing"

func TestAllocateIsIdempotentPerTypeName(t *testing.T) {
	m := New()
	a := m.Allocate("GP_DFF")
	b := m.Allocate("GP_DFF")
	if a != b {
		t.Errorf("Allocate(GP_DFF) twice = %d, %d, want equal", a, b)
	}

	c := m.Allocate("GP_2LUT")
	if c == a {
		t.Error("distinct type names must get distinct labels")
	}
}

func TestAliasResolvesToCanonicalLabel(t *testing.T) {
	m := New()
	canonical := m.Allocate("GP_DFFSR")
	m.Alias("GP_DFFR", "GP_DFFSR")
	m.Alias("GP_DFFS", "GP_DFFSR")

	for _, alias := range []string{"GP_DFFR", "GP_DFFS", "GP_DFFSR"} {
		l, ok := m.Resolve(alias)
		if !ok || l != canonical {
			t.Errorf("Resolve(%q) = (%d, %v), want (%d, true)", alias, l, ok, canonical)
		}
	}
}

func TestAliasOfUnallocatedTypePanics(t *testing.T) {
	m := New()
	defer func() {
		if recover() == nil {
			t.Error("expected panic when aliasing to an unallocated canonical type")
		}
	}()
	m.Alias("GP_DFFR", "GP_DFFSR")
}

func TestResolveUnknownTypeFails(t *testing.T) {
	m := New()
	if _, ok := m.Resolve("GP_MYSTERY"); ok {
		t.Error("Resolve of an unallocated type should report false")
	}
}

func TestNameFallsBackForUnknownLabel(t *testing.T) {
	m := New()
	l := m.Allocate("GP_2LUT")
	if got := m.Name(l); got != "GP_2LUT" {
		t.Errorf("Name(l) = %q, want GP_2LUT", got)
	}
	if got := m.Name(l + 100); got == "" {
		t.Error("Name of an unknown label should still return something non-empty")
	}
}
