package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsTemplateEdits(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "views/index.mst", "notes.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(newRegistrar(root), "/build/templates.cpp.o")
	changes, err := w.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "views/index.mst"), []byte("{{title}}"), 0o600))

	select {
	case change := <-changes:
		assert.Equal(t, filepath.Join(w.root, "views/index.mst"), change.Path)
		assert.Equal(t, "/build/templates.cpp.o", change.Target)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	cancel()
	for range changes {
	}
}

func TestShouldReportDebounces(t *testing.T) {
	w := NewWatcher(newRegistrar("."), "x.o")
	now := time.Now()

	assert.True(t, w.shouldReport("a.mst", now))
	assert.False(t, w.shouldReport("a.mst", now.Add(WatchDebounce/2)))
	assert.True(t, w.shouldReport("b.mst", now))
	assert.True(t, w.shouldReport("a.mst", now.Add(2*WatchDebounce)))
}
