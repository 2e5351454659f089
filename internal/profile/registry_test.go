package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subqc/internal/services"
)

func TestBuiltinCatalogue(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"Netflix-SV", "SVT-SE", "NRK-NO", "DR-DK", "Yle-FI-fi", "Yle-FI-sv"} {
		prof, err := reg.Get(id)
		if err != nil {
			t.Fatalf("expected built-in profile %s: %v", id, err)
		}
		if prof.MaxCPL <= 0 || prof.MaxCPS <= 0 {
			t.Fatalf("profile %s has unusable thresholds: %+v", id, prof)
		}
	}
	if got := len(reg.IDs()); got != 6 {
		t.Fatalf("expected 6 built-in profiles, got %d", got)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = reg.Get("BBC-EN")
	if !errors.Is(err, services.ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestSeverityOverride(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prof, err := reg.Get("Netflix-SV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := prof.Severity("cpl", "warning"); got != "error" {
		t.Fatalf("expected cpl severity override to error, got %q", got)
	}
	if got := prof.Severity("cps", "warning"); got != "warning" {
		t.Fatalf("expected fallback severity, got %q", got)
	}
}

func TestExtraProfileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.toml")
	extra := `[profiles.Test-XX]
max_cpl = 40
max_lines = 2
min_duration_ms = 1000
max_duration_ms = 6000
max_cps = 15.0
min_gap_ms = 50
`
	if err := os.WriteFile(path, []byte(extra), 0o644); err != nil {
		t.Fatalf("write extra profile: %v", err)
	}
	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Get("Test-XX"); err != nil {
		t.Fatalf("expected merged profile: %v", err)
	}
}

func TestInconsistentProfileRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	bad := `[profiles.Bad-XX]
max_cpl = 40
max_lines = 2
min_duration_ms = 9000
max_duration_ms = 6000
max_cps = 15.0
`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write bad profile: %v", err)
	}
	if _, err := NewRegistry(path); err == nil {
		t.Fatal("expected validation error for min >= max duration")
	}
}
