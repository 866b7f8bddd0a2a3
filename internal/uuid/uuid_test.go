// Package uuid tests for UUID v4 generation and validation.
package uuid

import "testing"

// TestNew verifies generated UUIDs are valid v4 and unique.
func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		if !IsValid(id) {
			t.Fatalf("New() produced invalid UUID v4: %q", id)
		}
		if seen[id] {
			t.Fatalf("New() produced duplicate UUID: %q", id)
		}
		seen[id] = true
	}
}

// TestIsValid covers accepted and rejected formats.
func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid lowercase", "8f14e45f-ceea-467f-abcd-99e0e1a2b3c4", true},
		{"valid uppercase variant", "8F14E45F-CEEA-467F-ABCD-99E0E1A2B3C4", true},
		{"empty", "", false},
		{"missing dashes", "8f14e45fceea467fabcd99e0e1a2b3c4", false},
		{"wrong version", "8f14e45f-ceea-167f-abcd-99e0e1a2b3c4", false},
		{"wrong variant", "8f14e45f-ceea-467f-1bcd-99e0e1a2b3c4", false},
		{"too short", "8f14e45f-ceea-467f-abcd", false},
		{"not hex", "zf14e45f-ceea-467f-abcd-99e0e1a2b3c4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.input); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestValidate verifies the error form.
func TestValidate(t *testing.T) {
	if err := Validate(New()); err != nil {
		t.Errorf("Validate of fresh UUID failed: %v", err)
	}
	if err := Validate("nope"); err == nil {
		t.Error("Validate of garbage should fail")
	}
}
