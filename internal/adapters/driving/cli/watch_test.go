package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd_IngestsExistingDocuments(t *testing.T) {
	ts := setupTestServices(t)
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf")

	ctx := withTimeout(t, 500*time.Millisecond)
	out, err := runCommandContext(t, ctx, "", "watch", dir, "--debounce", "10ms")

	require.NoError(t, err)
	assert.Contains(t, out, "Watching "+dir)
	assert.Contains(t, out, "Added 5 chunks from a.pdf (2 pages).")
	assert.Equal(t, []string{"a.pdf"}, ts.sessions.session.Registry.Names())
	assert.Equal(t, 1, ts.closed)
}

func TestWatchCmd_MissingDirectory(t *testing.T) {
	setupTestServices(t)

	_, err := runCommand(t, "", "watch", filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}
