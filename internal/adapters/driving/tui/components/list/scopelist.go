// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ScopeList is a checkbox list of documents with "All files" on top.
type ScopeList struct {
	items    []string
	checked  map[string]bool
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewScopeList creates an empty scope list.
func NewScopeList(s *styles.Styles) *ScopeList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ScopeList{
		items:   []string{domain.AllFiles},
		checked: make(map[string]bool),
		styles:  s,
		width:   80,
		height:  10,
	}
}

// Init initialises the scope list.
func (l *ScopeList) Init() tea.Cmd {
	return nil
}

// Update handles navigation and toggling.
func (l *ScopeList) Update(msg tea.Msg) (*ScopeList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case " ", "x":
			l.Toggle()
		}
	}
	return l, nil
}

// View renders the list.
func (l *ScopeList) View() string {
	lines := make([]string, 0, len(l.items)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Documents (%d)", len(l.items)-1)), "")

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.items))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i))
	}
	if len(l.items) == 1 {
		lines = append(lines, l.styles.Muted.Render("  No documents uploaded yet"))
	}
	return strings.Join(lines, "\n")
}

func (l *ScopeList) renderItem(i int) string {
	name := l.items[i]
	box := "[ ]"
	if l.checked[name] {
		box = "[x]"
	}

	maxLen := l.width - 8
	if maxLen < 10 {
		maxLen = 10
	}
	if r := []rune(name); len(r) > maxLen {
		name = string(r[:maxLen-3]) + "..."
	}

	if i == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("> %s %s", box, name))
	}
	return l.styles.Normal.Render(fmt.Sprintf("  %s %s", box, name))
}

// SetDocuments replaces the document names and checks those in selection.
func (l *ScopeList) SetDocuments(names, selection []string) {
	l.items = append([]string{domain.AllFiles}, names...)
	l.checked = make(map[string]bool, len(selection))
	for _, name := range selection {
		if slices.Contains(l.items, name) {
			l.checked[name] = true
		}
	}
	if l.selected >= len(l.items) {
		l.selected = len(l.items) - 1
	}
}

// Toggle flips the item under the cursor. Checking "All files" clears
// the individual documents and checking a document clears "All files".
func (l *ScopeList) Toggle() {
	name := l.items[l.selected]
	if l.checked[name] {
		delete(l.checked, name)
		return
	}
	if name == domain.AllFiles {
		l.checked = map[string]bool{domain.AllFiles: true}
		return
	}
	delete(l.checked, domain.AllFiles)
	l.checked[name] = true
}

// Selection returns the checked names in list order.
func (l *ScopeList) Selection() []string {
	var out []string
	for _, name := range l.items {
		if l.checked[name] {
			out = append(out, name)
		}
	}
	return out
}

// MoveUp moves the cursor up.
func (l *ScopeList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the cursor down.
func (l *ScopeList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// Cursor returns the index under the cursor.
func (l *ScopeList) Cursor() int {
	return l.selected
}

// SetDimensions sets the component dimensions.
func (l *ScopeList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Len returns the number of items, including "All files".
func (l *ScopeList) Len() int {
	return len(l.items)
}
