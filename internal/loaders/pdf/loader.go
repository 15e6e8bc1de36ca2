// Package pdf loads PDF documents page by page using poppler's pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// toolName is the external binary used for extraction.
const toolName = "pdftotext"

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Loader extracts page text from PDF files.
type Loader struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a loader that shells out to pdftotext.
func New() *Loader {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a loader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Loader {
	return &Loader{runner: runner, lookPath: exec.LookPath}
}

// Extensions returns the file extensions this loader accepts.
func (l *Loader) Extensions() []string {
	return []string{".pdf"}
}

// Load runs `pdftotext -layout <path> -` and splits the output into pages.
// Pages keep their 1-based position even when they carry no text.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Page, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	if _, err := l.lookPath(toolName); err != nil {
		return nil, fmt.Errorf("%w. %s", ErrPDFToolNotFound, InstallInstructions())
	}

	out, err := l.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	return splitPages(string(out)), nil
}

// splitPages cuts pdftotext output at form feeds. pdftotext terminates
// every page, including the last, with a form feed.
func splitPages(text string) []domain.Page {
	parts := strings.Split(text, pageBreak)
	if n := len(parts); n > 1 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}

	pages := make([]domain.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, domain.Page{
			Text:   strings.TrimRight(part, " \t\r\n"),
			Number: i + 1,
		})
	}
	return pages
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return "Install poppler to get pdftotext: " +
		"macOS: brew install poppler; " +
		"Debian/Ubuntu: apt install poppler-utils; " +
		"Fedora: dnf install poppler-utils"
}
