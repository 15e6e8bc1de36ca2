package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
)

// excerptRunes bounds the source excerpts returned with an answer.
const excerptRunes = 300

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Paths []string `json:"paths" jsonschema:"absolute paths of PDF files to index"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Results []IngestResultOutput `json:"results"`
	Summary string               `json:"summary"`
}

// IngestResultOutput reports one document.
type IngestResultOutput struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string   `json:"question" jsonschema:"the question to answer from the indexed documents"`
	Scope    []string `json:"scope,omitempty" jsonschema:"document names to search, or \"All files\" (default)"`
	Broad    bool     `json:"broad,omitempty" jsonschema:"retrieve more passages for summary style questions"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Guidance string         `json:"guidance,omitempty"`
	Sources  []SourceOutput `json:"sources,omitempty"`
}

// SourceOutput is one passage used as answer context.
type SourceOutput struct {
	Source  string `json:"source"`
	Page    *int   `json:"page,omitempty"`
	Excerpt string `json:"excerpt"`
}

// ListDocumentsInput takes no arguments.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []string `json:"documents"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Index PDF files so they can be asked about. Already indexed files are skipped.",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documents in scope",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List documents available for questions",
	}, s.handleListDocuments)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if len(input.Paths) == 0 {
		return nil, IngestOutput{}, fmt.Errorf("%w: no paths given", domain.ErrInvalidInput)
	}

	uploads, readErr := services.ReadUploads(input.Paths, s.ports.Extensions)

	results, summary, err := s.ports.Ingest.Ingest(ctx, s.session, uploads, nil)
	if err != nil && results == nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		Results: make([]IngestResultOutput, 0, len(results)),
		Summary: summary.String(),
	}
	for i := range results {
		output.Results = append(output.Results, IngestResultOutput{
			Name:    results[i].Name,
			Status:  string(results[i].Status),
			Message: results[i].Message,
		})
	}
	if readErr != nil {
		output.Results = append(output.Results, IngestResultOutput{
			Status:  string(domain.IngestError),
			Message: readErr.Error(),
		})
	}
	if err != nil {
		output.Summary += fmt.Sprintf(" (warning: %v)", err)
	}

	return nil, output, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	scope := input.Scope
	if len(scope) == 0 {
		scope = []string{domain.AllFiles}
	}

	answer, err := s.ports.Chat.Ask(ctx, s.session, input.Question, scope, driving.AskOptions{Broad: input.Broad})
	if err != nil {
		if msg, ok := domain.GuidanceMessage(err); ok {
			return nil, AskOutput{Guidance: msg}, nil
		}
		if errors.Is(err, domain.ErrAnswerUnavailable) {
			return nil, AskOutput{Answer: domain.AnswerUnavailableMessage}, nil
		}
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	for i, seg := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Source:  seg.Source,
			Page:    seg.Page,
			Excerpt: excerpt(seg.Content),
		}
	}
	return nil, output, nil
}

func (s *Server) handleListDocuments(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return nil, ListDocumentsOutput{Documents: s.session.Documents()}, nil
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptRunes {
		return content
	}
	return string(runes[:excerptRunes]) + "..."
}
