package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Ingest indexes uploaded documents.
	Ingest driving.IngestService

	// Chat answers questions.
	Chat driving.ChatService

	// Extensions lists accepted document extensions. Empty accepts all.
	Extensions []string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	return nil
}
