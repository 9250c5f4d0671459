package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetSink(t *testing.T) {
	t.Helper()

	debugSink.mu.Lock()
	prevOut, prevPending, prevDropped := debugSink.out, debugSink.pending, debugSink.dropped
	debugSink.out = nil
	debugSink.pending = nil
	debugSink.dropped = false
	debugSink.mu.Unlock()

	t.Cleanup(func() {
		debugSink.mu.Lock()
		_ = debugSink.closeLocked()
		debugSink.out = prevOut
		debugSink.pending = prevPending
		debugSink.dropped = prevDropped
		debugSink.mu.Unlock()
	})
}

func pendingLen() int {
	debugSink.mu.Lock()
	defer debugSink.mu.Unlock()
	return len(debugSink.pending)
}

func TestSetFileFailureDropsLines(t *testing.T) {
	resetSink(t)

	Printf("before destination")
	require.NotZero(t, pendingLen())

	logPath := filepath.Join(t.TempDir(), "missing", "debug.log")
	require.Error(t, SetFile(logPath))
	assert.Zero(t, pendingLen())

	Printf("should be dropped")
	assert.Zero(t, pendingLen())
}

func TestSetFileFlushesPendingLines(t *testing.T) {
	resetSink(t)

	Printf("resolved revision %s", "a1b2c3d")

	logPath := filepath.Join(t.TempDir(), "buildident.log")
	require.NoError(t, SetFile(logPath))
	Printf("named artifact %s", "mitsuqtt-esp12e")
	require.NoError(t, Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "resolved revision a1b2c3d")
	assert.Contains(t, string(data), "named artifact mitsuqtt-esp12e")
}

func TestEmptyPathDropsLines(t *testing.T) {
	resetSink(t)

	Printf("collected")
	require.NoError(t, SetFile(""))
	assert.Zero(t, pendingLen())
	assert.NoError(t, Close())
}

func TestPendingIsBounded(t *testing.T) {
	resetSink(t)

	line := strings.Repeat("x", 1024)
	for range 512 {
		Printf("%s", line)
	}
	assert.LessOrEqual(t, pendingLen(), pendingLimit)
}
