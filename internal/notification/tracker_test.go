package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/fatali-fataliyev/banking_portal/internal/storage"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("storage down")
}

func (brokenStore) Set(ctx context.Context, key string, value string) error {
	return errors.New("storage down")
}

func (brokenStore) Update(ctx context.Context, key string, fn func(string, bool) (string, error)) error {
	return errors.New("storage down")
}

func TestTrackerMarkRead(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()
	tracker := NewTracker(store, "1000123")

	require.False(t, tracker.IsRead(ctx, "tx-1"))

	require.NoError(t, tracker.MarkRead(ctx, "tx-1"))
	require.NoError(t, tracker.MarkAllRead(ctx, []string{"tx-2", "tx-3", ""}))
	require.NoError(t, tracker.MarkAllRead(ctx, nil))

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		require.True(t, tracker.IsRead(ctx, id), id)
	}

	raw, found, err := store.Get(ctx, ReadIDsKey("1000123"))
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `["tx-1","tx-2","tx-3"]`, raw)
}

func TestTrackerIsScopedPerAccount(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()

	require.NoError(t, NewTracker(store, "1000123").MarkRead(ctx, "tx-1"))
	require.False(t, NewTracker(store, "2000456").IsRead(ctx, "tx-1"))
}

func TestTrackerToleratesBadData(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStorage()
	tracker := NewTracker(store, "1000123")

	require.NoError(t, store.Set(ctx, ReadIDsKey("1000123"), "{corrupt"))
	require.False(t, tracker.IsRead(ctx, "tx-1"))

	// a corrupt set is replaced on the next write
	require.NoError(t, tracker.MarkRead(ctx, "tx-1"))
	require.True(t, tracker.IsRead(ctx, "tx-1"))

	// numeric ids from older clients are understood
	require.NoError(t, store.Set(ctx, ReadIDsKey("1000123"), "[42, 7]"))
	require.True(t, tracker.IsRead(ctx, "42"))

	broken := NewTracker(brokenStore{}, "1000123")
	require.False(t, broken.IsRead(ctx, "tx-1"))
	require.Error(t, broken.MarkRead(ctx, "tx-1"))
}
