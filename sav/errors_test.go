package sav

import (
	"errors"
	"testing"
)

// TestWrapErrorEOF keeps ErrUnexpectedEOF comparable: wrapping must return
// the sentinel itself, with no context attached.
func TestWrapErrorEOF(t *testing.T) {
	err := WrapError(ErrUnexpectedEOF, "names", 3)
	if err != ErrUnexpectedEOF {
		t.Fatalf("wrapped EOF = %v", err)
	}
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatal("errors.Is lost the sentinel")
	}
}

// Context wrapping clones: the original error value stays untouched, and
// outer wraps prepend their context.
func TestWrapErrorContext(t *testing.T) {
	ae := ArchiveError{Offset: 5, Reason: "nonzero pad"}

	inner := WrapError(ae, "object", 2)
	if got := inner.Error(); got != "sav: nonzero pad at offset 5 at object/2" {
		t.Fatalf("inner = %q", got)
	}
	outer := WrapError(inner, "data")
	if got := outer.Error(); got != "sav: nonzero pad at offset 5 at data/object/2" {
		t.Fatalf("outer = %q", got)
	}
	if ae.Error() != "sav: nonzero pad at offset 5" {
		t.Fatalf("original mutated: %q", ae.Error())
	}

	var got ArchiveError
	if !errors.As(outer, &got) || got.Reason != "nonzero pad" {
		t.Fatalf("errors.As = %v", outer)
	}
}

// Errors from outside the package gain context through errWrapped and stay
// reachable through Cause and errors.Is.
func TestWrapErrorGeneric(t *testing.T) {
	base := errors.New("boom")
	w := WrapError(base, "chunk", 1)
	if got := w.Error(); got != "boom at chunk/1" {
		t.Fatalf("wrapped = %q", got)
	}
	if Cause(w) != base {
		t.Fatalf("cause = %v", Cause(w))
	}
	if !errors.Is(w, base) {
		t.Fatal("errors.Is lost the cause")
	}
	if !Fatal(w) {
		t.Fatal("unknown causes default to fatal")
	}

	if Cause(base) != base {
		t.Fatal("cause of an unwrapped error is itself")
	}
}

func TestWrapErrorRecursion(t *testing.T) {
	err := WrapError(ErrRecursion, "deep")
	if !errors.Is(err, ErrRecursion) {
		t.Fatalf("wrapped recursion = %v", err)
	}
	if got := err.Error(); got != "sav: recursion limit reached at deep" {
		t.Fatalf("message = %q", got)
	}
}

// Fatal distinguishes wire corruption from fixable document problems: only
// JSON bridge errors are non-fatal.
func TestFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"eof", ErrUnexpectedEOF, true},
		{"recursion", ErrRecursion, true},
		{"chunk", &ChunkError{Offset: 12, Reason: "bad package tag"}, true},
		{"unknown type", UnknownTypeError{Tag: "FancyProperty"}, true},
		{"size mismatch", SizeMismatchError{Property: "Level"}, true},
		{"name", NameError{Index: 5, Count: 1}, true},
		{"archive", ArchiveError{Reason: "nonzero pad"}, true},
		{"value", ValueError{Property: "Level"}, true},
		{"json", JSONError{Reason: "unknown key"}, false},
		{"wrapped json", WrapError(JSONError{Reason: "unknown key"}, "objects"), false},
		{"outside error", errors.New("boom"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fatal(tc.err); got != tc.want {
				t.Fatalf("Fatal(%v) = %t, want %t", tc.err, got, tc.want)
			}
		})
	}
}

// TestErrorMessages pins the rendered form of each error type.
func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrUnexpectedEOF, "sav: too few bytes left to read object"},
		{ErrRecursion, "sav: recursion limit reached"},
		{&ChunkError{Offset: 12, Reason: "bad package tag"}, "sav: chunk at offset 12: bad package tag"},
		{&ChunkError{Offset: -1, Reason: "content shorter than its header"}, "sav: content shorter than its header"},
		{
			UnknownTypeError{Tag: "FancyProperty", Offset: 34},
			`sav: unknown property type "FancyProperty" at offset 34`,
		},
		{
			SizeMismatchError{Property: "Level", Declared: 5, Actual: 4},
			`sav: property "Level" declared 5 payload bytes but decoding consumed 4`,
		},
		{
			NameError{Index: 5, Count: 1},
			"sav: name index 5 out of range (table holds 1 names)",
		},
		{
			ArchiveError{Offset: 7, Reason: "nonzero pad 0x1 after property bag"},
			"sav: nonzero pad 0x1 after property bag at offset 7",
		},
		{
			ValueError{Property: "Level", Tag: "IntProperty", Got: "sav.StrValue"},
			`sav: property "Level" tagged IntProperty holds sav.StrValue`,
		},
		{JSONError{Reason: `unknown key "bogus"`}, `sav: json: unknown key "bogus"`},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("message = %q, want %q", got, tc.want)
		}
	}
}
