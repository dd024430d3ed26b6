package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fatali-fataliyev/banking_portal/internal/contextutil"
	"github.com/fatali-fataliyev/banking_portal/logging"
)

type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Update(ctx context.Context, key string, fn func(current string, found bool) (string, error)) error
}

type ReadSet interface {
	IsRead(id string) bool
}

type readIDs map[string]struct{}

func (r readIDs) IsRead(id string) bool {
	_, ok := r[id]
	return ok
}

func ReadIDsKey(accountNumber string) string {
	return "readNotificationIds_" + accountNumber
}

// Tracker persists which notification ids an account has acknowledged. Ids are
// only ever added.
type Tracker struct {
	store         Store
	accountNumber string
}

func NewTracker(store Store, accountNumber string) *Tracker {
	return &Tracker{store: store, accountNumber: accountNumber}
}

func (t *Tracker) AccountNumber() string {
	return t.accountNumber
}

// Snapshot loads the read set; unreadable data counts as an empty set.
func (t *Tracker) Snapshot(ctx context.Context) ReadSet {
	raw, found, err := t.store.Get(ctx, ReadIDsKey(t.accountNumber))
	if err != nil {
		logging.Logger.Warnf("[TraceID=%s] | failed to load read notification ids, treating all as unread: %v",
			contextutil.TraceIDFromContext(ctx), err)
		return readIDs{}
	}
	if !found {
		return readIDs{}
	}
	return t.decode(ctx, raw)
}

func (t *Tracker) IsRead(ctx context.Context, id string) bool {
	return t.Snapshot(ctx).IsRead(id)
}

func (t *Tracker) MarkRead(ctx context.Context, id string) error {
	return t.MarkAllRead(ctx, []string{id})
}

func (t *Tracker) MarkAllRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := t.store.Update(ctx, ReadIDsKey(t.accountNumber), func(current string, found bool) (string, error) {
		set := readIDs{}
		if found {
			set = t.decode(ctx, current)
		}
		for _, id := range ids {
			if id != "" {
				set[id] = struct{}{}
			}
		}
		return encode(set)
	})
	if err != nil {
		return fmt.Errorf("failed to save read notification ids: %w", err)
	}
	return nil
}

func (t *Tracker) decode(ctx context.Context, raw string) readIDs {
	set := readIDs{}
	if raw == "" {
		return set
	}

	// ids written by older clients may be numbers
	var values []any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		logging.Logger.Warnf("[TraceID=%s] | corrupt read notification ids for account %s, treating all as unread: %v",
			contextutil.TraceIDFromContext(ctx), t.accountNumber, err)
		return set
	}
	for _, v := range values {
		if id, ok := scalarString(v); ok && id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func encode(set readIDs) (string, error) {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode read notification ids: %w", err)
	}
	return string(raw), nil
}
