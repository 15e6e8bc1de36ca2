package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func testDefaults() map[string]string {
	return map[string]string{
		driven.PromptReformulate:  "reformulate default",
		driven.PromptAnswerSystem: "answer default {context}",
	}
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir, testDefaults())

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "constructor does no I/O")
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("", nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docqa", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptReformulate)
	require.NoError(t, err)
	assert.Equal(t, "reformulate default", prompt)

	for _, f := range []string{"reformulate.txt", "answer_system.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "`answer_system.txt`")
}

func TestPromptStore_Load_UserOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_system.txt"), []byte("  custom {context}\n"), 0600))
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)

	require.NoError(t, err)
	assert.Equal(t, "custom {context}", prompt)
	data, _ := os.ReadFile(filepath.Join(dir, "answer_system.txt"))
	assert.Equal(t, "  custom {context}\n", string(data), "existing files are not overwritten")
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reformulate.txt"), []byte("   "), 0600))
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptReformulate)

	require.NoError(t, err)
	assert.Equal(t, "reformulate default", prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults())
	require.NoError(t, err)

	_, err = store.Load(driven.PromptReformulate)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reformulate.txt"), []byte("edited"), 0600))

	cached, _ := store.Load(driven.PromptReformulate)
	assert.Equal(t, "reformulate default", cached)

	store.Reload()
	fresh, _ := store.Load(driven.PromptReformulate)
	assert.Equal(t, "edited", fresh)
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	store, err := NewPromptStore(filepath.Join(blocker, "prompts"), testDefaults())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptReformulate)
	require.NoError(t, err)
	assert.Equal(t, "reformulate default", prompt)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir(), testDefaults())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptAnswerSystem)
			assert.NoError(t, err)
			assert.Equal(t, "answer default {context}", prompt)
		}()
	}
	wg.Wait()
}
