package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptInput(t *testing.T) {
	p := NewPromptInput(nil)

	require.NotNil(t, p)
	assert.True(t, p.Focused())
	assert.Empty(t, p.Value())
	assert.NotNil(t, p.Init())
}

func TestPromptInput_Typing(t *testing.T) {
	p := NewPromptInput(nil)

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("why?")})

	assert.Equal(t, "why?", p.Value())
	assert.Contains(t, p.View(), "Ask:")
}

func TestPromptInput_Take(t *testing.T) {
	p := NewPromptInput(nil)
	p.SetValue("/files")

	assert.Equal(t, "/files", p.Take())
	assert.Empty(t, p.Value())
}

func TestPromptInput_FocusBlur(t *testing.T) {
	p := NewPromptInput(nil)

	p.Blur()
	assert.False(t, p.Focused())

	p.Focus()
	assert.True(t, p.Focused())
}

func TestPromptInput_SetWidth(t *testing.T) {
	p := NewPromptInput(nil)

	p.SetWidth(100)
	assert.Equal(t, 100, p.Width())
	assert.Equal(t, 88, p.textinput.Width)

	p.SetWidth(10)
	assert.Equal(t, 20, p.textinput.Width)
}
