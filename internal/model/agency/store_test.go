package agency

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())

	p := store.Profile()
	p.Services[0].Title = "mutated"
	p.Tone[0] = "mutated"

	again := store.Profile()
	if again.Services[0].Title != "Web Design" {
		t.Fatalf("store leaked service slice: %s", again.Services[0].Title)
	}
	if again.Tone[0] != "Professional" {
		t.Fatalf("store leaked tone slice: %s", again.Tone[0])
	}
}

func TestLoadFileFillsMissingFieldsFromSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	content := "assistantName: Nova\ncontact:\n  email: hello@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile err: %v", err)
	}

	if p.AssistantName != "Nova" {
		t.Fatalf("expected assistant Nova, got %s", p.AssistantName)
	}
	if p.Contact.Email != "hello@example.com" {
		t.Fatalf("expected overridden email, got %s", p.Contact.Email)
	}
	if p.Name != Seed().Name {
		t.Fatalf("expected seeded name, got %s", p.Name)
	}
	if len(p.Services) != 3 {
		t.Fatalf("expected seeded services, got %d", len(p.Services))
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
