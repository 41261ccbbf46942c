package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrTimeout, "fungen", "generate", "deadline exceeded", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected error to match ErrTimeout, got %v", err)
	}
	if got := err.Error(); got != "timeout: fungen: generate: deadline exceeded" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrIO, "sidecar", "copy", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be preserved")
	}
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO marker")
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected default marker ErrExternalTool, got %v", err)
	}
	if got := err.Error(); got != "external tool error: service failure" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestFatal(t *testing.T) {
	if !Fatal(Wrap(ErrConfiguration, "config", "load", "missing path", nil)) {
		t.Fatal("configuration errors must be fatal")
	}
	if !Fatal(Wrap(ErrNotFound, "stash", "find scene", "42", nil)) {
		t.Fatal("not-found errors must be fatal")
	}
	if Fatal(Wrap(ErrExternalTool, "fungen", "spawn", "", nil)) {
		t.Fatal("external tool errors are per-item, not fatal")
	}
	if Fatal(nil) {
		t.Fatal("nil is not fatal")
	}
}
