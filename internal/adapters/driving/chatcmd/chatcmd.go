// Package chatcmd parses the slash commands shared by the interactive
// chat front ends (terminal UI and plain REPL).
package chatcmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Kind identifies what a line of chat input asks for.
type Kind int

const (
	// Ask is a plain question.
	Ask Kind = iota
	// Scope replaces the document selection.
	Scope
	// Files lists the registered documents.
	Files
	// Add ingests one or more files.
	Add
	// Broad toggles broad retrieval.
	Broad
	// History prints the conversation so far.
	History
	// Help lists the commands.
	Help
	// Quit ends the session.
	Quit
	// Empty is a blank line.
	Empty
)

// Command is one parsed line of chat input.
type Command struct {
	Kind Kind

	// Text is the question for Ask.
	Text string

	// Args are the parsed arguments. For Scope they are document names,
	// for Add they are file paths.
	Args []string
}

// Usage is the help text listing the commands.
const Usage = `Commands:
  /scope <a.pdf, b.pdf>  limit questions to the named documents
  /scope all             search every document
  /scope                 show the current scope
  /files                 list uploaded documents
  /add <path> [path...]  upload and index PDF files
  /broad                 toggle broad retrieval
  /history               show the conversation
  /help                  show this help
  /quit                  leave the chat`

// Parse interprets one line of input. Anything not starting with "/" is
// a question.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: Empty}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: Ask, Text: line}, nil
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "scope":
		return Command{Kind: Scope, Args: parseScope(rest)}, nil
	case "files", "docs":
		return Command{Kind: Files}, nil
	case "add":
		paths := strings.Fields(rest)
		if len(paths) == 0 {
			return Command{}, fmt.Errorf("%w: /add needs at least one path", domain.ErrInvalidInput)
		}
		return Command{Kind: Add, Args: paths}, nil
	case "broad":
		return Command{Kind: Broad}, nil
	case "history":
		return Command{Kind: History}, nil
	case "help", "?":
		return Command{Kind: Help}, nil
	case "quit", "exit", "q":
		return Command{Kind: Quit}, nil
	default:
		return Command{}, fmt.Errorf("%w: unknown command /%s", domain.ErrInvalidInput, name)
	}
}

// parseScope splits a comma separated document list. "all" maps to
// domain.AllFiles. An empty list means "show the current scope".
func parseScope(rest string) []string {
	if rest == "" {
		return nil
	}
	if strings.EqualFold(rest, "all") || rest == domain.AllFiles {
		return []string{domain.AllFiles}
	}
	var names []string
	for _, part := range strings.Split(rest, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DescribeScope renders a selection for display.
func DescribeScope(selection []string) string {
	if len(selection) == 0 {
		return "(none)"
	}
	return strings.Join(selection, ", ")
}

// UnknownDocuments returns the names in selection that are neither
// registered nor the all-files sentinel.
func UnknownDocuments(selection, registered []string) []string {
	known := make(map[string]struct{}, len(registered))
	for _, name := range registered {
		known[name] = struct{}{}
	}
	var unknown []string
	for _, name := range selection {
		if name == domain.AllFiles {
			continue
		}
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Citations lists an answer's sources as "name (p. N)", without
// repeats, in retrieval order.
func Citations(answer *domain.Answer) []string {
	if answer == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(answer.Sources))
	var out []string
	for i := range answer.Sources {
		seg := &answer.Sources[i]
		c := seg.Source
		if seg.Page != nil {
			c += " (p. " + strconv.Itoa(*seg.Page) + ")"
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// FormatHistory renders conversation turns one per line.
func FormatHistory(turns []domain.Turn) string {
	if len(turns) == 0 {
		return "No questions asked yet."
	}
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		label := "You"
		if turn.Role == domain.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s", label, turn.Text)
	}
	return b.String()
}
