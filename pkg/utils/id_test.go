package utils

import (
	"strings"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID()
	if !strings.HasPrefix(id, "run-") {
		t.Fatalf("unexpected run ID format %q", id)
	}
	if id == GenerateRunID() {
		t.Fatalf("run IDs must be unique")
	}
}

func TestGenerateTrialID(t *testing.T) {
	id := GenerateTrialID()
	if !strings.HasPrefix(id, "trial-") {
		t.Fatalf("unexpected trial ID format %q", id)
	}
	if id == GenerateTrialID() {
		t.Fatalf("trial IDs must be unique")
	}
}
