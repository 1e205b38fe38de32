// ABOUTME: Bubbletea model for the recording meter TUI
// ABOUTME: Renders session state, elapsed time and a live level bar
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// LevelMsg carries a level update from the session.
type LevelMsg float64

// StatusMsg carries a status string from the session.
type StatusMsg string

// CompleteMsg carries the completion summary from the session.
type CompleteMsg struct {
	Path            string
	DurationSeconds float64
	SizeBytes       int64
}

// ErrorMsg carries a session error.
type ErrorMsg struct {
	Err error
}

// StopRequestedMsg is emitted toward the application when the user quits.
type StopRequestedMsg struct{}

// tickMsg drives the elapsed-time display.
type tickMsg time.Time

// Model is the meter TUI state.
type Model struct {
	status  string
	level   float64
	peak    float64
	started time.Time
	done    bool
	summary string
	lastErr string
	onQuit  func()
	width   int
}

// NewModel creates the meter model. onQuit is invoked once when the user
// asks to stop.
func NewModel(onQuit func()) Model {
	return Model{status: "Idle", started: time.Now(), onQuit: onQuit}
}

// Run starts the meter TUI program.
func Run(onQuit func()) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(onQuit))
	return p, nil
}

// Init schedules the first clock tick.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.onQuit != nil {
				m.onQuit()
				m.onQuit = nil
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tick()
	case LevelMsg:
		m.level = float64(msg)
		if m.level > m.peak {
			m.peak = m.level
		}
	case StatusMsg:
		m.status = string(msg)
	case CompleteMsg:
		m.done = true
		m.summary = fmt.Sprintf("%s (%.2fs, %d bytes)", msg.Path, msg.DurationSeconds, msg.SizeBytes)
		return m, tea.Quit
	case ErrorMsg:
		m.lastErr = msg.Err.Error()
	}

	return m, nil
}

// View renders the meter.
func (m Model) View() string {
	elapsed := time.Since(m.started).Truncate(time.Second)

	s := "┌─ tapmix ─────────────────────────────────────┐\n"
	s += fmt.Sprintf("│ Status:  %-35s │\n", truncate(m.status, 35))
	s += fmt.Sprintf("│ Elapsed: %-35s │\n", elapsed)
	s += fmt.Sprintf("│ Level:   [%s] %4.0f%%%-8s │\n", renderBar(m.level, 20), m.level*100, "")
	s += fmt.Sprintf("│ Peak:    [%s] %4.0f%%%-8s │\n", renderBar(m.peak, 20), m.peak*100, "")
	if m.lastErr != "" {
		s += fmt.Sprintf("│ Error:   %-35s │\n", truncate(m.lastErr, 35))
	}
	if m.done {
		s += fmt.Sprintf("│ Saved:   %-35s │\n", truncate(m.summary, 35))
	}
	s += "│ q: stop and save                             │\n"
	s += "└──────────────────────────────────────────────┘\n"
	return s
}

// renderBar renders a level bar of the given width for a 0.0-1.0 value.
func renderBar(value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
