package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestSessionService_Start_SeedsProcessedSet(t *testing.T) {
	processed := &mockProcessedSetStore{saved: domain.NewFingerprintSet("abc")}
	svc := NewSessionService(processed, memory.NewVectorIndex())

	session, err := svc.Start(context.Background(), false)

	require.NoError(t, err)
	_, err = uuid.Parse(session.ID)
	assert.NoError(t, err)
	assert.True(t, session.Processed.Has("abc"))
	assert.Zero(t, session.Registry.Len())
	assert.Zero(t, session.Conversation.Len())
}

func TestSessionService_Start_Restore(t *testing.T) {
	index := memory.NewVectorIndex()
	require.NoError(t, index.Add(context.Background(), []domain.Segment{
		{ChunkID: "a-0", Source: "a.pdf", Embedding: []float32{1}},
		{ChunkID: "b-0", Source: "b.pdf", Embedding: []float32{1}},
	}))
	svc := NewSessionService(&mockProcessedSetStore{}, index)

	session, err := svc.Start(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, session.Registry.Names())
}

func TestSessionService_Start_UniqueIDs(t *testing.T) {
	svc := NewSessionService(nil, nil)

	a, err := svc.Start(context.Background(), true)
	require.NoError(t, err)
	b, err := svc.Start(context.Background(), true)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Processed)
}

type brokenIndex struct {
	driven.VectorIndex
}

func (brokenIndex) Sources(context.Context) ([]string, error) {
	return nil, errors.New("locked")
}

func TestSessionService_Start_RestoreError(t *testing.T) {
	svc := NewSessionService(nil, brokenIndex{})

	_, err := svc.Start(context.Background(), true)

	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}
