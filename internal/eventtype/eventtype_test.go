package eventtype

import (
	"testing"

	"github.com/stretchr/testify/require"

	pebblestore "github.com/rzbill/flo/internal/storage/pebble"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func TestGetUnknownReturnsErrNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get("orders.created")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	repo := newTestRepo(t)
	created, err := repo.Create("orders.created", "topic-abc", 8, []string{"orders.read"})
	require.NoError(t, err)
	require.Equal(t, "orders.created", created.Name)
	require.NotZero(t, created.CreatedAtMs)

	got, err := repo.Get("orders.created")
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestCreateOverwritesExisting(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Create("orders.created", "topic-abc", 8, nil)
	require.NoError(t, err)

	_, err = repo.Create("orders.created", "topic-xyz", 16, []string{"orders.read"})
	require.NoError(t, err)

	got, err := repo.Get("orders.created")
	require.NoError(t, err)
	require.Equal(t, "topic-xyz", got.Topic)
	require.Equal(t, 16, got.Partitions)
}

func TestDeleteRemovesRecord(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Create("orders.created", "topic-abc", 8, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Delete("orders.created"))
	_, err = repo.Get("orders.created")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHasReadScopeEmptyMeansPublic(t *testing.T) {
	m := Meta{Name: "orders.created"}
	require.True(t, m.HasReadScope(nil))
	require.True(t, m.HasReadScope([]string{"anything"}))
}

func TestHasReadScopeRequiresMatch(t *testing.T) {
	m := Meta{ReadScopes: []string{"orders.read", "orders.admin"}}
	require.True(t, m.HasReadScope([]string{"orders.read"}))
	require.True(t, m.HasReadScope([]string{"orders.admin", "unrelated"}))
	require.False(t, m.HasReadScope([]string{"unrelated"}))
	require.False(t, m.HasReadScope(nil))
}
