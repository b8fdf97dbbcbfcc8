package problem

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFillsTitleFromStatus(t *testing.T) {
	p := New(http.StatusNotFound, "event type unknown")
	require.Equal(t, "Not Found", p.Title)
	require.Equal(t, http.StatusNotFound, p.Status)
	require.Equal(t, "event type unknown", p.Detail)
}

func TestWriteSetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, New(http.StatusForbidden, "blacklisted"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "blacklisted", body.Detail)
	require.Equal(t, "Forbidden", body.Title)
}

func TestWriteOmitsEmptyDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, New(http.StatusInternalServerError, ""))
	require.NotContains(t, rec.Body.String(), "detail")
}
