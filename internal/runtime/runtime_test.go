package runtime

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	cfgpkg "github.com/rzbill/flo/internal/config"
	pebblestore "github.com/rzbill/flo/internal/storage/pebble"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	require.NoError(t, err)
	defer rt.Close()
	require.NoError(t, rt.CheckHealth(context.Background()))
}

func TestEventTypesWiring(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	require.NoError(t, err)
	defer rt.Close()

	require.NotNil(t, rt.EventTypes())
	require.NotNil(t, rt.Repo())
	require.NotNil(t, rt.Controller())

	_, err = rt.EventTypes().Get("orders")
	require.Error(t, err)
}

// TestEnsureEventTypeAgainstRealBroker is a smoke test gated behind a live
// Kafka address, mirroring how the original acceptance suite separated
// unit-level coverage from broker-dependent integration coverage.
func TestEnsureEventTypeAgainstRealBroker(t *testing.T) {
	addr := os.Getenv("FLO_KAFKA_ADDR")
	if addr == "" {
		t.Skip("FLO_KAFKA_ADDR not set; skipping broker-backed integration test")
	}
	dir := t.TempDir()
	cfg := cfgpkg.Default()
	cfg.CoordinationAddr = addr
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	require.NoError(t, err)
	defer rt.Close()

	meta, err := rt.EnsureEventType("orders", nil)
	require.NoError(t, err)
	require.NotEmpty(t, meta.Topic)

	exists, err := rt.Repo().TopicExists(meta.Topic)
	require.NoError(t, err)
	require.True(t, exists)
}
