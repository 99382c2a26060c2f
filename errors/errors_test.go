package errors

import (
	"errors"
	"testing"
)

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"decode", DecodeErrorf("bad byte"), IsDecodeError},
		{"invalid argument", InvalidArgumentf("bad argument"), IsInvalidArgument},
		{"invalid state", InvalidStatef("bad state"), IsInvalidState},
		{"policy rejection", PolicyRejectionf(AlertInsufficientSecty, "weak key"), IsPolicyRejection},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.is(tc.err) {
				t.Fatalf("%v not recognized as its own kind", tc.err)
			}
		})
	}
}

func TestErrorAlertMapping(t *testing.T) {
	if a := DecodeErrorf("x").Alert(); a != AlertDecodeError {
		t.Fatalf("DecodeErrorf alert = %v, want AlertDecodeError", a)
	}
	if a := PolicyRejectionf(AlertHandshakeFailure, "x").Alert(); a != AlertHandshakeFailure {
		t.Fatalf("PolicyRejectionf alert = %v, want AlertHandshakeFailure", a)
	}
}

func TestErrorUnwrapsBase(t *testing.T) {
	base := errors.New("underlying cause")
	wrapped := InvalidStatef("context").Base(base)
	if !errors.Is(wrapped, base) {
		t.Fatalf("expected wrapped error to unwrap to base")
	}
}

func TestCombine(t *testing.T) {
	if Combine(nil, nil) != nil {
		t.Fatalf("Combine of all-nil should be nil")
	}
	e1 := DecodeErrorf("first")
	e2 := InvalidArgumentf("second")
	combined := Combine(nil, e1, e2)
	if combined == nil {
		t.Fatalf("Combine should be non-nil")
	}
	if !errors.Is(combined, e1) || !errors.Is(combined, e2) {
		t.Fatalf("combined error should unwrap to both members")
	}
}

func TestAllEqual(t *testing.T) {
	sentinel := errors.New("sentinel")
	wrapped1 := InvalidStatef("a").Base(sentinel)
	wrapped2 := InvalidStatef("b").Base(sentinel)
	combined := Combine(wrapped1, wrapped2)
	if !AllEqual(sentinel, combined) {
		t.Fatalf("expected AllEqual to hold when every member wraps sentinel")
	}
	if AllEqual(sentinel, Combine(wrapped1, DecodeErrorf("unrelated"))) {
		t.Fatalf("expected AllEqual to fail when one member does not wrap sentinel")
	}
}
