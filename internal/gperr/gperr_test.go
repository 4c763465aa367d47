package gperr

import (
	"errors"
	"testing"
)

func TestNetlistErrorUnwrapsToSentinel(t *testing.T) {
	err := NewNetlistError("build_graphs", "undriven net with loads", "lut_a", "lut_b")
	if !errors.Is(err, ErrNetlistError) {
		t.Error("NetlistError should unwrap to ErrNetlistError")
	}
	want := "build_graphs: undriven net with loads (lut_a, lut_b)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNetlistErrorWithoutCells(t *testing.T) {
	err := NewNetlistError("apply_loc", "unknown cell type GP_FOO")
	want := "apply_loc: unknown cell type GP_FOO"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestResourceErrorUnwrapsToSentinel(t *testing.T) {
	err := NewResourceError("GP_COUNTER14", 2, 1)
	if !errors.Is(err, ErrResourceExhausted) {
		t.Error("ResourceError should unwrap to ErrResourceExhausted")
	}
	want := "out of GP_COUNTER14: wanted 2, have 1"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestResourceErrorZeroCounts(t *testing.T) {
	err := NewResourceError("cross-connection matrix 0", 0, 0)
	want := "out of sites of type cross-connection matrix 0"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationBuilderBuildsNilWhenClean(t *testing.T) {
	v := &ValidationBuilder{}
	v.Addf(true, "should not appear")
	if v.HasErrors() {
		t.Error("HasErrors() should be false when all conditions hold")
	}
	if err := v.Build(); err != nil {
		t.Errorf("Build() = %v, want nil", err)
	}
}

func TestValidationBuilderAccumulates(t *testing.T) {
	v := &ValidationBuilder{}
	v.Addf(false, "site %s double-assigned", "IOB_P3")
	v.Add("LOC attribute on GP_2LUT cell 'lut_a' has no matching site")

	if !v.HasErrors() {
		t.Fatal("HasErrors() should be true")
	}
	if got := len(v.Messages()); got != 2 {
		t.Fatalf("Messages() returned %d entries, want 2", got)
	}

	err := v.Build()
	if !errors.Is(err, ErrNetlistError) {
		t.Error("ValidationBuilder.Build() should unwrap to ErrNetlistError")
	}
}

func TestValidationErrorSingleMessage(t *testing.T) {
	e := &ValidationError{Errors: []string{"one problem"}}
	if got := e.Error(); got != "one problem" {
		t.Errorf("Error() = %q, want %q", got, "one problem")
	}
}

func TestValidationErrorMultipleMessages(t *testing.T) {
	e := &ValidationError{Errors: []string{"first", "second"}}
	want := "2 errors:\n  - first\n  - second"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
