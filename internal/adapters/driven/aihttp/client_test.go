package aihttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		_, _ = w.Write([]byte(`{"answer":"ok"}`))
	}))
	defer server.Close()

	c := New("test", server.URL+"/", time.Second, map[string]string{"X-Key": "secret"})
	var out struct {
		Answer string `json:"answer"`
	}

	require.NoError(t, c.PostJSON(context.Background(), "/v1/echo", map[string]string{"q": "hi"}, &out))
	assert.Equal(t, "ok", out.Answer)
	assert.Equal(t, server.URL, c.BaseURL())
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		invalid     bool
	}{
		{"nested message", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "bad key", true},
		{"flat message", http.StatusNotFound, `{"error":"model not found"}`, "model not found", true},
		{"rate limited", http.StatusTooManyRequests, `slow down`, "slow down", false},
		{"server error", http.StatusBadGateway, ``, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := New("test", server.URL, time.Second, nil).Get(context.Background(), "/", nil)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.Code)
			assert.Equal(t, tt.wantMessage, statusErr.Message)
			assert.Equal(t, tt.invalid, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestErrorMessage_TruncatesOnRuneBoundary(t *testing.T) {
	// One ASCII byte shifts every three-byte rune off the byte limit.
	body := "x" + strings.Repeat("€", maxErrorBody)

	msg := errorMessage([]byte(body))

	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, maxErrorBody, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasPrefix(body, msg))
}

func TestErrorMessage_ShortBodyKept(t *testing.T) {
	assert.Equal(t, "überlastet", errorMessage([]byte("  überlastet \n")))
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := New("test", server.URL, time.Second, nil).Get(context.Background(), "/", &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New("test", server.URL, time.Second, nil).Get(ctx, "/", nil)

	assert.ErrorIs(t, err, context.Canceled)
}
