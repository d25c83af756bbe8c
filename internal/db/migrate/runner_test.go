package migrate

import (
	"errors"
	"strings"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run("", "up")
	if err == nil {
		t.Fatal("Run with empty DSN should return error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL is not set") {
		t.Errorf("error = %q, should mention DATABASE_URL", err)
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, direction := range []string{"", "invalid", "UP", "Up", "both"} {
		t.Run("direction "+direction, func(t *testing.T) {
			err := Run("postgres://localhost/test", direction)
			if err == nil {
				t.Fatalf("Run with direction %q should return error", direction)
			}
			if !strings.Contains(err.Error(), "direction must be up or down") {
				t.Errorf("error = %q, should mention direction", err)
			}
		})
	}
}

func TestRun_ValidDirectionReachesDatabase(t *testing.T) {
	// Direction validation passes; the failure (if any) comes from the DSN.
	for _, direction := range []string{"up", "down"} {
		err := Run("postgres://localhost/nonexistent", direction)
		if err != nil && strings.Contains(err.Error(), "direction must be") {
			t.Errorf("direction %q rejected: %v", direction, err)
		}
	}
}

func TestErrNoChange(t *testing.T) {
	if ErrNoChange == nil {
		t.Fatal("ErrNoChange should not be nil")
	}
	// Run never surfaces ErrNoChange; it is swallowed and nil is returned.
	if err := Run("postgres://localhost/test", "up"); errors.Is(err, ErrNoChange) {
		t.Error("Run should not return ErrNoChange")
	}
}
