package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythosai/mythos/internal/log"
)

func openTestStore(t *testing.T, quota int64) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), quota, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyHistory, []byte(`[{"id":"1"}]`)))

	got, err := store.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"1"}]`), got)

	// Overwrite replaces the previous value.
	require.NoError(t, store.Set(ctx, KeyHistory, []byte(`[]`)))
	got, err = store.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func TestStoreGetMissingKey(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 0)

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreQuota(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 16)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyUser, []byte("small")))

	err := store.Set(ctx, KeyUser, bytes.Repeat([]byte("x"), 17))
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// The rejected write left the previous value intact.
	got, err := store.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.Equal(t, []byte("small"), got)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyUser, []byte("v")))
	require.NoError(t, store.Delete(ctx, KeyUser))
	require.NoError(t, store.Delete(ctx, KeyUser))

	_, err := store.Get(ctx, KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	store, err := Open(dir, 0, log.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), KeyHistory, []byte("persisted")))
	require.NoError(t, store.Close())

	reopened, err := Open(dir, 0, log.NewNop())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(context.Background(), KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestStoreLockExcludesSecondOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	store, err := Open(dir, 0, log.NewNop())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = Open(dir, 0, log.NewNop())
	assert.ErrorIs(t, err, ErrLocked)
}

func TestStorePing(t *testing.T) {
	t.Parallel()
	store := openTestStore(t, 0)
	assert.NoError(t, store.Ping(context.Background()))
}
