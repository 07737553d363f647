package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPersona_DefaultWhenUnset(t *testing.T) {
	p, err := LoadPersona("  ")
	if err != nil {
		t.Fatalf("LoadPersona: %v", err)
	}
	if !strings.Contains(p.Instructions, "named Bibion") || p.Acknowledgement != DefaultAcknowledgement {
		t.Fatalf("unexpected default persona: %+v", p)
	}
}

func TestLoadPersona_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.txt")
	if err := os.WriteFile(path, []byte("\n  Be brief and kind.\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("LoadPersona: %v", err)
	}
	if p.Instructions != "Be brief and kind." || p.Acknowledgement == "" {
		t.Fatalf("unexpected persona: %+v", p)
	}
}

func TestLoadPersona_Errors(t *testing.T) {
	if _, err := LoadPersona(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	empty := filepath.Join(t.TempDir(), "empty.txt")
	_ = os.WriteFile(empty, []byte("   "), 0o600)
	if _, err := LoadPersona(empty); err == nil {
		t.Fatalf("expected error for blank file")
	}
}
