package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fatali-fataliyev/banking_portal/internal/money"
	"github.com/fatali-fataliyev/banking_portal/internal/storage"
	"github.com/fatali-fataliyev/banking_portal/internal/timestamp"
	"github.com/stretchr/testify/require"
)

func newTestAggregator() *Aggregator {
	normalizer := timestamp.NewNormalizer("Asia/Ho_Chi_Minh")
	normalizer.Now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return NewAggregator(normalizer, NewClassifier(money.NewVNDFormatter()))
}

func TestAggregateKeepsMostRecent(t *testing.T) {
	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	var txs []RawTransaction
	for i := 0; i < 15; i++ {
		txs = append(txs, RawTransaction{
			"id":              fmt.Sprintf("tx-%02d", i),
			"transactionType": "deposit",
			"amount":          float64(1000 * (i + 1)),
			// epoch milliseconds, shuffled so the feed order is not chronological
			"timestamp": float64(base.Add(time.Duration((i*7)%15) * time.Hour).UnixMilli()),
		})
	}

	result := newTestAggregator().Aggregate(txs, "1000123", nil)

	require.Len(t, result.Notifications, MaxNotifications)
	require.Equal(t, MaxNotifications, result.UnreadCount)
	for i := 1; i < len(result.Notifications); i++ {
		require.False(t, result.Notifications[i].CreatedAt.After(result.Notifications[i-1].CreatedAt))
	}
	require.True(t, result.Notifications[0].CreatedAt.Equal(base.Add(14*time.Hour)))
}

func TestAggregateMixedTimestampFormats(t *testing.T) {
	txs := []RawTransaction{
		{"id": "seconds", "type": "deposit", "amount": 1.0, "createdAt": float64(1760000000)},
		{"id": "iso", "type": "deposit", "amount": 1.0, "transactionDate": "2026-10-18T10:00:00Z"},
		{"id": "array", "type": "deposit", "amount": 1.0, "date": []any{2026.0, 10.0, 17.0, 9.0, 30.0}},
		{"id": "spaced", "type": "deposit", "amount": 1.0, "created_at": "2026-10-16 09:30:00.123"},
	}

	result := newTestAggregator().Aggregate(txs, "", nil)

	require.Equal(t, []string{"iso", "array", "spaced", "seconds"}, result.IDs())
}

func TestAggregateEqualTimestampsKeepFeedOrder(t *testing.T) {
	txs := []RawTransaction{
		{"id": "a", "type": "deposit", "amount": 1.0, "transactionDate": "2026-10-18T10:00:00Z"},
		{"id": "b", "type": "deposit", "amount": 2.0, "transactionDate": "2026-10-18T10:00:00Z"},
		{"id": "c", "type": "deposit", "amount": 3.0, "transactionDate": "2026-10-18T10:00:00Z"},
	}

	result := newTestAggregator().Aggregate(txs, "", nil)

	require.Equal(t, []string{"a", "b", "c"}, result.IDs())
}

func TestAggregateDerivedIDsAreStable(t *testing.T) {
	txs := []RawTransaction{
		{
			"transactionType":     "transfer",
			"amount":              "250000",
			"sourceAccountNumber": "1000123",
			"targetAccountNumber": "2000456",
			"transactionDate":     "2026-10-18T10:00:00Z",
		},
		{
			"transactionType": "deposit",
			"amount":          "250000",
			"transactionDate": "2026-10-18T10:00:00Z",
		},
	}
	aggregator := newTestAggregator()

	first := aggregator.Aggregate(txs, "1000123", nil)
	second := aggregator.Aggregate(txs, "1000123", nil)

	require.Equal(t, first.IDs(), second.IDs())
	require.NotEqual(t, first.IDs()[0], first.IDs()[1])
	require.Equal(t, CategoryTransferOut, first.Notifications[0].Category)
	require.Equal(t, "2000456", first.Notifications[0].RelatedAccountNumber)
}

func TestAggregateReadState(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(storage.NewInMemoryStorage(), "1000123")
	txs := []RawTransaction{
		{"id": "tx-1", "type": "deposit", "amount": 1.0, "transactionDate": "2026-10-18T10:00:00Z"},
		{"id": "tx-2", "type": "withdrawal", "amount": 1.0, "transactionDate": "2026-10-18T11:00:00Z"},
		{"id": "tx-3", "type": "other", "amount": 1.0, "transactionDate": "2026-10-18T12:00:00Z"},
	}
	aggregator := newTestAggregator()

	result := aggregator.Aggregate(txs, "1000123", tracker.Snapshot(ctx))
	require.Equal(t, 3, result.UnreadCount)

	require.NoError(t, tracker.MarkRead(ctx, "tx-2"))
	result = aggregator.Aggregate(txs, "1000123", tracker.Snapshot(ctx))
	require.Equal(t, 2, result.UnreadCount)
	require.True(t, result.Notifications[1].IsRead)

	require.NoError(t, tracker.MarkAllRead(ctx, result.IDs()))
	result = aggregator.Aggregate(txs, "1000123", tracker.Snapshot(ctx))
	require.Equal(t, 0, result.UnreadCount)
}

func TestAggregateEmptyFeed(t *testing.T) {
	result := newTestAggregator().Aggregate(nil, "1000123", nil)

	require.Empty(t, result.Notifications)
	require.Equal(t, 0, result.UnreadCount)
}

func TestAggregateDerivedIDsForUndatedTransactions(t *testing.T) {
	txs := []RawTransaction{
		{"type": "deposit", "amount": 100000.0, "sourceAccountNumber": "1000123"},
		{"type": "deposit", "amount": 100000.0, "sourceAccountNumber": "1000123"},
		{"type": "deposit", "amount": 100000.0, "sourceAccountNumber": "1000123", "description": "salary"},
	}
	aggregator := newTestAggregator()

	first := aggregator.Aggregate(txs, "1000123", nil)
	second := aggregator.Aggregate(txs, "1000123", nil)

	ids := first.IDs()
	require.Len(t, ids, 3)
	require.Equal(t, ids, second.IDs())

	unique := map[string]bool{}
	for _, id := range ids {
		unique[id] = true
	}
	require.Len(t, unique, 3)
}

func TestAggregateDismissingOneUndatedDuplicateKeepsTheOther(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(storage.NewInMemoryStorage(), "1000123")
	txs := []RawTransaction{
		{"type": "withdrawal", "amount": 50000.0},
		{"type": "withdrawal", "amount": 50000.0},
	}
	aggregator := newTestAggregator()

	result := aggregator.Aggregate(txs, "1000123", tracker.Snapshot(ctx))
	require.NoError(t, tracker.MarkRead(ctx, result.Notifications[0].ID))

	result = aggregator.Aggregate(txs, "1000123", tracker.Snapshot(ctx))
	require.Equal(t, 1, result.UnreadCount)
}
