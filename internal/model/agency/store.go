package agency

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store exposes the agency profile for HTTP handlers and prompt building.
type Store interface {
	Profile() Profile
}

// MemoryStore implements Store with a profile fixed at construction.
type MemoryStore struct {
	profile Profile
}

// NewMemoryStore returns a MemoryStore holding a copy of the supplied profile.
func NewMemoryStore(profile Profile) *MemoryStore {
	return &MemoryStore{profile: clone(profile)}
}

// Profile returns a copy so callers cannot mutate the shared profile.
func (s *MemoryStore) Profile() Profile {
	return clone(s.profile)
}

// LoadFile reads a YAML profile and fills any field it leaves empty from Seed.
func LoadFile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read agency profile: %w", err)
	}

	var loaded Profile
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Profile{}, fmt.Errorf("decode agency profile %s: %w", path, err)
	}

	return mergeWithSeed(loaded), nil
}

func mergeWithSeed(p Profile) Profile {
	seed := Seed()
	if strings.TrimSpace(p.Name) == "" {
		p.Name = seed.Name
	}
	if strings.TrimSpace(p.AssistantName) == "" {
		p.AssistantName = seed.AssistantName
	}
	if strings.TrimSpace(p.Greeting) == "" {
		p.Greeting = seed.Greeting
	}
	if len(p.Tone) == 0 {
		p.Tone = seed.Tone
	}
	if len(p.Services) == 0 {
		p.Services = seed.Services
	}
	if p.Contact == (Channels{}) {
		p.Contact = seed.Contact
	}
	return p
}

func clone(p Profile) Profile {
	out := p
	out.Tone = append([]string(nil), p.Tone...)
	out.Services = make([]Service, len(p.Services))
	for i, svc := range p.Services {
		svc.Highlights = append([]string(nil), svc.Highlights...)
		out.Services[i] = svc
	}
	return out
}
