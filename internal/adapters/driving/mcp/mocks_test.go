package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer    *domain.Answer
	err       error
	selection []string
	opts      driving.AskOptions
}

func (m *mockChatService) Ask(
	_ context.Context,
	_ *domain.Session,
	_ string,
	selection []string,
	opts driving.AskOptions,
) (*domain.Answer, error) {
	m.selection = selection
	m.opts = opts
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
// It registers every upload in the session.
type mockIngestService struct {
	uploads []domain.Upload
	err     error
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	session *domain.Session,
	uploads []domain.Upload,
	_ driving.ProgressFunc,
) ([]domain.IngestResult, domain.BatchSummary, error) {
	m.uploads = append(m.uploads, uploads...)
	results := make([]domain.IngestResult, len(uploads))
	for i, u := range uploads {
		results[i] = domain.SuccessResult(u.Name, "fp-"+u.Name, 1, 2)
		session.Registry.Add(u.Name)
	}
	return results, domain.Summarise(results, 0), m.err
}

func newTestServer() (*Server, *mockChatService, *mockIngestService, *domain.Session) {
	chat := &mockChatService{}
	ingest := &mockIngestService{}
	session := domain.NewSession("test", nil)
	server, err := NewServer(&Ports{Chat: chat, Ingest: ingest, Extensions: []string{".pdf"}}, session)
	if err != nil {
		panic(err)
	}
	return server, chat, ingest, session
}
