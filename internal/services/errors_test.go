package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("read failed")
	err := Wrap(ErrDecode, "extractor", "decode wav", "Header unreadable", base)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "extractor: decode wav") {
		t.Fatalf("missing component detail: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "executor", "", "", nil)
	if !errors.Is(err, ErrFileSystem) {
		t.Fatalf("nil marker should default to filesystem: %v", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrValidation, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{Wrap(ErrValidation, "config", "load", "bad weights", nil), true},
		{Wrap(ErrLocked, "lock", "acquire", "held elsewhere", nil), true},
		{Wrap(ErrDecode, "extractor", "decode", "corrupt", nil), false},
		{Wrap(ErrFileSystem, "executor", "copy", "permission denied", nil), false},
	}
	for _, tc := range cases {
		if got := IsFatal(tc.err); got != tc.fatal {
			t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}
