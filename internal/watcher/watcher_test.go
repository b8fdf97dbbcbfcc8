package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadyUntilCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := Watch(ctx)
	require.True(t, w.Ready())

	cancel()
	require.Eventually(t, func() bool { return !w.Ready() }, time.Second, time.Millisecond)
}

func TestDisarmStopsWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := Watch(ctx)
	require.True(t, w.Ready())

	w.Disarm()
	require.False(t, w.Ready())
}

func TestDisarmIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := Watch(ctx)
	require.NotPanics(t, func() {
		w.Disarm()
		w.Disarm()
	})
}
