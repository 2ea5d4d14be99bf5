package utils

import "testing"

func TestRandomNameGeneratorUnique(t *testing.T) {
	var rng RandomNameGenerator
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		name := rng.RandomName()
		if name == "" {
			t.Fatal("empty name")
		}
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
	}
}
