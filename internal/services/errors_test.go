package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrUnknownProfile, "registry", "get", "no such profile", nil)
	if !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
	want := "unknown profile: registry: get: no such profile"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("bad timestamp")
	err := Wrap(ErrParse, "srt", "decode", "block 3", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if IsFatal(nil) {
		t.Fatal("nil error must not be fatal")
	}
	if IsFatal(Wrap(ErrFixVerification, "autofix", "verify", "rewrap regressed", nil)) {
		t.Fatal("fix verification failures are recovered, not fatal")
	}
	if !IsFatal(Wrap(ErrParse, "srt", "decode", "no cues", nil)) {
		t.Fatal("parse failures are fatal")
	}
}
