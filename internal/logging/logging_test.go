package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", zerolog.GlobalLevel())
	}
	if err := SetLevel(""); err != nil {
		t.Errorf("empty level should be a no-op: %v", err)
	}
	if err := SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
