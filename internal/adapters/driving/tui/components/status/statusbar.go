// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateThinking  State = "thinking"
	StateIngesting State = "ingesting"
	StateError     State = "error"
	StatePicking   State = "picking"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	step     domain.ChainState
	message  string
	done     int
	total    int
	docCount int
	scope    string
	broad    bool
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the state and session summary.
func (s *Bar) renderLeft() string {
	var state string
	switch s.state {
	case StateThinking:
		state = s.styles.Warning.Render(stepLabel(s.step))
	case StateIngesting:
		state = s.styles.Warning.Render(fmt.Sprintf("Ingesting %d/%d", s.done, s.total))
	case StateError:
		if s.message != "" {
			state = s.styles.Error.Render("Error: " + s.message)
		} else {
			state = s.styles.Error.Render("Error")
		}
	case StatePicking:
		state = s.styles.Normal.Render("Choose documents")
	case StateReady:
		state = s.styles.Muted.Render("Ready")
	default:
		state = s.styles.Muted.Render("Ready")
	}

	summary := fmt.Sprintf("%d docs | scope: %s", s.docCount, s.scopeLabel())
	if s.broad {
		summary += " | broad"
	}
	return state + "  " + s.styles.Muted.Render(summary)
}

func (s *Bar) scopeLabel() string {
	if s.scope == "" {
		return "none"
	}
	return s.scope
}

// stepLabel describes a chain state for the user.
func stepLabel(step domain.ChainState) string {
	switch step {
	case domain.StateReformulating:
		return "Rephrasing question..."
	case domain.StateRetrieving:
		return "Searching documents..."
	case domain.StateGenerating:
		return "Writing answer..."
	case domain.StateAwaitingQuestion:
		return "Thinking..."
	}
	return "Thinking..."
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StatePicking {
		bindings = s.keymap.PickerHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hints = append(hints, hint(b))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

func hint(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%s: %s", h.Key, h.Desc)
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetStep records the chain state shown while thinking.
func (s *Bar) SetStep(step domain.ChainState) {
	s.step = step
}

// SetMessage sets the error message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetProgress records ingestion progress.
func (s *Bar) SetProgress(done, total int) {
	s.done = done
	s.total = total
}

// SetSession records the document count, scope and broad flag.
func (s *Bar) SetSession(docCount int, scope string, broad bool) {
	s.docCount = docCount
	s.scope = scope
	s.broad = broad
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the state to ready, keeping the session summary.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.done, s.total = 0, 0
}
