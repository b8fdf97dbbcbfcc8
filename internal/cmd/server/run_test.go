package serverrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cfgpkg "github.com/rzbill/flo/internal/config"
	pebblestore "github.com/rzbill/flo/internal/storage/pebble"
)

func TestOptionsDataDirFallback(t *testing.T) {
	opts := Options{Config: cfgpkg.Default()}
	require.Empty(t, opts.DataDir)
	opts.DataDir = cfgpkg.DefaultDataDir()
	require.NotEmpty(t, opts.DataDir)
}

func TestGetenvDefault(t *testing.T) {
	require.Equal(t, "default", getenvDefault("EVENTCORE_TEST_UNSET", "default"))

	os.Setenv("EVENTCORE_TEST_SET", "value")
	t.Cleanup(func() { os.Unsetenv("EVENTCORE_TEST_SET") })
	require.Equal(t, "value", getenvDefault("EVENTCORE_TEST_SET", "default"))
}

func TestDataDirStoreSubdirectory(t *testing.T) {
	opts := Options{DataDir: "/tmp/eventcore"}
	storeDir := filepath.Join(opts.DataDir, "store")
	require.Equal(t, "/tmp/eventcore/store", storeDir)
}

// TestRunIntegration exercises Run's startup/shutdown path against an
// in-process HTTP listener; it does not require a live Kafka broker since
// the topic repository dials brokers lazily.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tempDir := t.TempDir()

	opts := Options{
		DataDir:       tempDir,
		HTTPAddr:      "127.0.0.1:0",
		Fsync:         pebblestore.FsyncModeNever,
		FsyncInterval: time.Millisecond,
		Config:        cfgpkg.Default(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Run(ctx, opts)
	require.NoError(t, err)
}
