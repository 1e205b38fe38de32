// ABOUTME: Tests for the meter TUI model
// ABOUTME: Tests message handling, peak tracking and bar rendering
package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestLevelUpdatesTrackPeak(t *testing.T) {
	m := NewModel(nil)

	next, _ := m.Update(LevelMsg(0.5))
	m = next.(Model)
	next, _ = m.Update(LevelMsg(0.2))
	m = next.(Model)

	if m.level != 0.2 {
		t.Errorf("expected level 0.2, got %f", m.level)
	}
	if m.peak != 0.5 {
		t.Errorf("expected peak 0.5, got %f", m.peak)
	}
}

func TestStatusAndErrorMessages(t *testing.T) {
	m := NewModel(nil)

	next, _ := m.Update(StatusMsg("Recording"))
	m = next.(Model)
	if m.status != "Recording" {
		t.Errorf("expected status Recording, got %q", m.status)
	}

	next, _ = m.Update(ErrorMsg{Err: errors.New("disk full")})
	m = next.(Model)
	if !strings.Contains(m.View(), "disk full") {
		t.Error("expected error in view")
	}
}

func TestCompleteQuits(t *testing.T) {
	m := NewModel(nil)

	next, cmd := m.Update(CompleteMsg{Path: "out.wav", DurationSeconds: 2, SizeBytes: 100})
	m = next.(Model)

	if !m.done {
		t.Error("expected done after completion")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !strings.Contains(m.View(), "out.wav") {
		t.Error("expected summary in view")
	}
}

func TestQuitKeyInvokesCallbackOnce(t *testing.T) {
	calls := 0
	m := NewModel(func() { calls++ })

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = next.(Model)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	if calls != 1 {
		t.Errorf("expected one quit callback, got %d", calls)
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		filled int
	}{
		{"silent", 0, 0},
		{"half", 0.5, 10},
		{"full", 1, 20},
		{"clamped", 1.5, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderBar(tt.value, 20)
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("expected %d filled cells, got %d", tt.filled, got)
			}
		})
	}
}
