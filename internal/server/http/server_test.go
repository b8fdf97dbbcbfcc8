package httpserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	cfgpkg "github.com/rzbill/flo/internal/config"
	"github.com/rzbill/flo/internal/runtime"
	pebblestore "github.com/rzbill/flo/internal/storage/pebble"
)

func newTestRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	dir := t.TempDir()
	rt, err := runtime.Open(runtime.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestHealthHandler(t *testing.T) {
	rt := newTestRuntime(t)
	s := New(rt)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateEventTypeHandler(t *testing.T) {
	rt := newTestRuntime(t)
	s := New(rt)
	body := `{"name":"orders.created","partitions":4,"read_scopes":["orders.read"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/event-types", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	// A live broker is required to create the backing topic; without one the
	// handler still exercises request parsing and error mapping.
	require.True(t, w.Code == http.StatusCreated || w.Code == http.StatusInternalServerError)
}

func TestEventsHandlerRequiresEventType(t *testing.T) {
	rt := newTestRuntime(t)
	s := New(rt)
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsHandlerUnknownEventType(t *testing.T) {
	rt := newTestRuntime(t)
	s := New(rt)
	req := httptest.NewRequest(http.MethodGet, "/v1/events?event_type=missing", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
