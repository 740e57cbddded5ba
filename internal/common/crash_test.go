package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	InstallCrashHandler(t.TempDir())

	path := WriteCrashFile("worker", "boom", "goroutine 1 [running]:\nmain.main()")
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "goroutine: worker")
	assert.Contains(t, string(data), "panic: boom")
	assert.Contains(t, string(data), "all goroutines")
}

func TestSafeGoWritesCrashReport(t *testing.T) {
	dir := t.TempDir()
	InstallCrashHandler(dir)

	SafeGo(nil, "panicking-worker", func() {
		panic("tape rewind failed")
	})

	require.Eventually(t, func() bool {
		entries, err := filepath.Glob(filepath.Join(dir, "crash-*.log"))
		return err == nil && len(entries) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCrashDirFollowsLogFile(t *testing.T) {
	config := DefaultConfig()
	config.Logging.FilePath = "var/log/finagent.log"
	assert.Equal(t, filepath.Clean("var/log"), config.CrashDir())

	config.Logging.FilePath = ""
	assert.Equal(t, "./logs", config.CrashDir())
}
