package ctxerrors

import (
	"errors"
	"testing"
)

func TestErrorMessageWithAndWithoutCause(t *testing.T) {
	plain := New(InputError, "bad line range")
	if plain.Error() != "[INPUT_ERROR] bad line range" {
		t.Errorf("unexpected message: %q", plain.Error())
	}

	cause := errors.New("boom")
	wrapped := Wrap(ParseError, "strategy failed", cause)
	if wrapped.Error() != "[PARSE_ERROR] strategy failed: boom" {
		t.Errorf("unexpected wrapped message: %q", wrapped.Error())
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(Timeout, "deadline hit", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestIsMatchesOnCodeOnly(t *testing.T) {
	a := New(EmptyDiff, "no hunks supplied")
	b := New(EmptyDiff, "a completely different message")
	c := New(InputError, "no hunks supplied")

	if !errors.Is(a, b) {
		t.Error("expected same-code errors to match via errors.Is")
	}
	if errors.Is(a, c) {
		t.Error("expected different-code errors not to match")
	}
}
