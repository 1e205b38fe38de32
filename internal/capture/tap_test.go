// ABOUTME: Tests for the driving-source lifecycles
// ABOUTME: Exercises the state machine paths that need no audio hardware
package capture

import (
	"errors"
	"testing"
)

func TestTapStartBeforeBindFails(t *testing.T) {
	tap := NewTapSource(Target{Kind: SystemMixdown, Name: "System Audio"})

	err := tap.Start()
	if !errors.Is(err, ErrAggregateDevice) {
		t.Fatalf("expected ErrAggregateDevice, got %v", err)
	}
	if tap.State() != StateUnbound {
		t.Errorf("failed start must not advance the state, got %s", tap.State())
	}

	if err := tap.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tap.State() != StateDestroyed {
		t.Errorf("expected destroyed after close, got %s", tap.State())
	}
	if err := tap.Close(); err != nil {
		t.Errorf("Close should be idempotent: %v", err)
	}
}

func TestMicSourceStartBeforeBindFails(t *testing.T) {
	mic := NewMicSource("")

	err := mic.Start()
	if !errors.Is(err, ErrNoInputDevice) {
		t.Fatalf("expected ErrNoInputDevice, got %v", err)
	}
	if mic.State() != StateUnbound {
		t.Errorf("failed start must not advance the state, got %s", mic.State())
	}

	if err := mic.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mic.State() != StateDestroyed {
		t.Errorf("expected destroyed after close, got %s", mic.State())
	}
}
