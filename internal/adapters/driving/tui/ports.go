// Package tui provides an interactive terminal chat over uploaded documents.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Ingest indexes documents added with /add.
	Ingest driving.IngestService

	// Extensions lists the file extensions /add accepts.
	Extensions []string

	// ChainStates, when set, registers a callback for answering flow
	// state changes so the status bar can follow progress.
	ChainStates func(fn func(domain.ChainState))
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService, ingest driving.IngestService, extensions []string) *Ports {
	return &Ports{
		Chat:       chat,
		Ingest:     ingest,
		Extensions: extensions,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	return nil
}
