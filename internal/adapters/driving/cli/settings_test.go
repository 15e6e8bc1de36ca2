package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("llm.api_key"))
	assert.True(t, isSecretKey("embedding.api_key"))
	assert.False(t, isSecretKey("llm.model"))
}

func TestSettingsShow(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.LLM.APIKey = "sk-1234567890abcdef"

	out, err := runCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "Directory: /tmp/docqa-index")
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_ValidationWarning(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.validateErr = domain.ErrMissingCredential

	out, err := runCommand(t, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: missing API credential")
}

func TestSettingsShow_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetSettingsService(nil)

	_, err := runCommand(t, "", "settings", "show")

	assert.Error(t, err)
}

func TestSettingsSet(t *testing.T) {
	ts := setupTestServices(t)

	out, err := runCommand(t, "", "settings", "set", "retrieval.top_k", "6")

	require.NoError(t, err)
	assert.Equal(t, "6", ts.settings.set["retrieval.top_k"])
	assert.Contains(t, out, "Set retrieval.top_k = 6")
}

func TestSettingsSet_PromptsForAPIKey(t *testing.T) {
	ts := setupTestServices(t)

	out, err := runCommand(t, "sk-proj-1234567890abcdefghijklmnop\n", "settings", "set", "llm.api_key")

	require.NoError(t, err)
	assert.Equal(t, "sk-proj-1234567890abcdefghijklmnop", ts.settings.set["llm.api_key"])
	assert.Contains(t, out, "Enter llm.api_key: ")
	assert.Contains(t, out, "Set llm.api_key = sk-p...mnop")
}

func TestSettingsSet_ValueRequired(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "", "settings", "set", "llm.model")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSet_UnknownKey(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "", "settings", "set", "bogus", "1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeys(t *testing.T) {
	setupTestServices(t)

	out, err := runCommand(t, "", "settings", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "llm.provider")
	assert.Contains(t, out, "retrieval.top_k_broad")
	assert.Contains(t, out, "index.dir")
}

func TestSettingsCheck(t *testing.T) {
	ts := setupTestServices(t)

	out, err := runCommand(t, "", "settings", "check")

	require.NoError(t, err)
	assert.True(t, ts.settings.pinged)
	assert.Contains(t, out, "Reaching AI providers... OK")
}

func TestSettingsCheck_ConnectivityFailure(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.connectivityErr = errors.New("connection refused")

	out, err := runCommand(t, "", "settings", "check")

	require.Error(t, err)
	assert.Contains(t, out, "FAILED")
}

func TestSettingsCheck_InvalidSkipsConnectivity(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.validateErr = domain.ErrMissingCredential

	_, err := runCommand(t, "", "settings", "check")

	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.False(t, ts.settings.pinged)
}
