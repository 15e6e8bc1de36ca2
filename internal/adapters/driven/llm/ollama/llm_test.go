package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestLLMService_Generate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"one\ntwo","done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	out, err := svc.Generate(context.Background(), "paraphrase", driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", out)
	assert.Equal(t, DefaultLLMModel, got.Model)
	assert.False(t, got.Stream)
	assert.Nil(t, got.Options, "unset options are omitted")
}

func TestLLMService_Chat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"answer"}}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "mistral"})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}},
		driven.ChatOptions{MaxTokens: 50})

	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	require.NotNil(t, got.Options)
	assert.Equal(t, 50, got.Options.NumPredict)
	assert.Equal(t, "mistral", svc.ModelName())
}

func TestLLMService_Ping_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	assert.Error(t, svc.Ping(context.Background()))
}
