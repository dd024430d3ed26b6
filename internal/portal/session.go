package portal

import (
	"context"
	"strconv"
	"sync"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/auth"
	"github.com/fatali-fataliyev/banking_portal/internal/contextutil"
	"github.com/fatali-fataliyev/banking_portal/internal/notification"
	"github.com/fatali-fataliyev/banking_portal/internal/spending"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/shopspring/decimal"
)

// Session is one signed-in viewer: its bank client, resolved account and
// notification refresher.
type Session struct {
	portal    *Portal
	token     string
	client    BankClient
	refresher *notification.Refresher

	// guarded by portal.mu
	lastUsed  time.Time
	expiresAt time.Time

	mu      sync.Mutex
	account string
}

func (s *Session) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

func newSession(p *Portal, token string, client BankClient) *Session {
	s := &Session{portal: p, token: token, client: client}
	s.refresher = notification.NewRefresher(p.pollSpec, s.load)
	s.refresher.OnUpdate(s.saveUnreadCount)
	return s
}

// Account resolves the viewer's account number once: the bank backend first,
// then the token subject. It returns "" while neither source knows it.
func (s *Session) Account(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account != "" {
		return s.account
	}

	traceID := contextutil.TraceIDFromContext(ctx)
	account, err := s.client.ResolveAccountNumber(ctx)
	if err != nil || account == "" {
		logging.Logger.Warnf("[TraceID=%s] | failed to resolve account from bank backend, trying token subject: %v", traceID, err)
		account, err = auth.AccountFromToken(s.token)
		if err != nil {
			logging.Logger.Warnf("[TraceID=%s] | account number unresolved: %v", traceID, err)
			return ""
		}
	}
	s.account = account
	return account
}

func (s *Session) cachedAccount() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

func (s *Session) load(ctx context.Context) notification.Result {
	traceID := contextutil.TraceIDFromContext(ctx)
	account := s.Account(ctx)

	txs, err := s.client.FetchTransactions(ctx)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to fetch transactions: %v", traceID, err)
		if appErrors.CodeOf(err) == appErrors.ErrAuth {
			logging.Logger.Warnf("[TraceID=%s] | bank rejected the session token, stopping session", traceID)
			s.portal.drop(s)
		}
		return notification.Result{Notifications: []notification.Notification{}}
	}

	var read notification.ReadSet
	if account != "" {
		read = notification.NewTracker(s.portal.storage, account).Snapshot(ctx)
	}
	return s.portal.aggregator.Aggregate(txs, account, read)
}

func (s *Session) saveUnreadCount(result notification.Result) {
	account := s.cachedAccount()
	if account == "" {
		return
	}
	ctx := context.Background()
	if err := s.portal.storage.Set(ctx, UnreadCountKey(account), strconv.Itoa(result.UnreadCount)); err != nil {
		logging.Logger.Warnf("failed to cache unread notification count for account %s: %v", account, err)
	}
}

func (s *Session) tracker(ctx context.Context) (*notification.Tracker, error) {
	account := s.Account(ctx)
	if account == "" {
		return nil, errNoAccount()
	}
	return notification.NewTracker(s.portal.storage, account), nil
}

// Notifications recomputes the list from a fresh feed.
func (s *Session) Notifications(ctx context.Context) notification.Result {
	return s.refresher.RefreshNow(ctx)
}

func (s *Session) Latest() notification.Result {
	return s.refresher.Latest()
}

// Refresh queues a background recompute.
func (s *Session) Refresh() {
	s.refresher.Trigger()
}

// UnreadCount serves the cached badge count, computing it when nothing is cached.
func (s *Session) UnreadCount(ctx context.Context) int {
	if account := s.Account(ctx); account != "" {
		raw, found, err := s.portal.storage.Get(ctx, UnreadCountKey(account))
		if err == nil && found {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n >= 0 {
				return n
			}
		}
	}
	return s.refresher.RefreshNow(ctx).UnreadCount
}

func (s *Session) MarkRead(ctx context.Context, id string) (notification.Result, error) {
	if id == "" {
		return notification.Result{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Notification id is required.",
		}
	}
	return s.MarkAllRead(ctx, []string{id})
}

// MarkAllRead marks ids read. An empty ids marks every notification of a fresh
// pass, so it works before the first scheduled pass has published.
func (s *Session) MarkAllRead(ctx context.Context, ids []string) (notification.Result, error) {
	tracker, err := s.tracker(ctx)
	if err != nil {
		return notification.Result{}, err
	}
	if len(ids) == 0 {
		ids = s.refresher.RefreshNow(ctx).IDs()
	}
	if err := tracker.MarkAllRead(ctx, ids); err != nil {
		return notification.Result{}, err
	}

	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	return s.refresher.Edit(func(r notification.Result) notification.Result {
		return rebuild(r, func(n notification.Notification) (notification.Notification, bool) {
			if marked[n.ID] {
				n.IsRead = true
			}
			return n, true
		})
	}), nil
}

// Dismiss marks id read and drops it from the current list.
func (s *Session) Dismiss(ctx context.Context, id string) (notification.Result, error) {
	if id == "" {
		return notification.Result{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Notification id is required.",
		}
	}
	tracker, err := s.tracker(ctx)
	if err != nil {
		return notification.Result{}, err
	}
	if err := tracker.MarkRead(ctx, id); err != nil {
		return notification.Result{}, err
	}
	return s.refresher.Edit(func(r notification.Result) notification.Result {
		return rebuild(r, func(n notification.Notification) (notification.Notification, bool) {
			return n, n.ID != id
		})
	}), nil
}

func (s *Session) CheckSpendingLimit(ctx context.Context, amount decimal.Decimal) spending.Decision {
	return s.portal.guard.Check(ctx, s.Account(ctx), amount)
}

func (s *Session) SpendingLimits(ctx context.Context) (spending.Limits, spending.Spending, error) {
	account := s.Account(ctx)
	limits, err := s.portal.guard.Limits(ctx, account)
	if err != nil {
		return spending.Limits{}, spending.Spending{}, err
	}
	current, err := s.portal.guard.Spending(ctx, account)
	if err != nil {
		return spending.Limits{}, spending.Spending{}, err
	}
	return limits, current, nil
}

func (s *Session) SaveSpendingLimits(ctx context.Context, limits spending.Limits) error {
	return s.portal.guard.SaveLimits(ctx, s.Account(ctx), limits)
}

// RecordSpending adds a completed transaction to the running totals and asks
// for a refresh so its notification shows up without waiting for the poll.
func (s *Session) RecordSpending(ctx context.Context, amount decimal.Decimal) (spending.Spending, error) {
	updated, err := s.portal.guard.RecordSpending(ctx, s.Account(ctx), amount)
	if err != nil {
		return spending.Spending{}, err
	}
	s.refresher.Trigger()
	return updated, nil
}

// BalanceVisible defaults to true until the viewer hides the balance.
func (s *Session) BalanceVisible(ctx context.Context) (bool, error) {
	account := s.Account(ctx)
	if account == "" {
		return false, errNoAccount()
	}
	raw, found, err := s.portal.storage.Get(ctx, BalanceVisibleKey(account))
	if err != nil {
		return false, err
	}
	return parseVisible(raw, found), nil
}

func (s *Session) ToggleBalanceVisibility(ctx context.Context) (bool, error) {
	account := s.Account(ctx)
	if account == "" {
		return false, errNoAccount()
	}
	var visible bool
	err := s.portal.storage.Update(ctx, BalanceVisibleKey(account), func(current string, found bool) (string, error) {
		visible = !parseVisible(current, found)
		return strconv.FormatBool(visible), nil
	})
	if err != nil {
		return false, err
	}
	return visible, nil
}

func parseVisible(raw string, found bool) bool {
	if !found {
		return true
	}
	visible, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return visible
}

// rebuild maps r through fn, dropping entries fn rejects, and recounts unread.
func rebuild(r notification.Result, fn func(notification.Notification) (notification.Notification, bool)) notification.Result {
	out := notification.Result{Notifications: make([]notification.Notification, 0, len(r.Notifications))}
	for _, n := range r.Notifications {
		n, keep := fn(n)
		if !keep {
			continue
		}
		out.Notifications = append(out.Notifications, n)
		if !n.IsRead {
			out.UnreadCount++
		}
	}
	return out
}

func errNoAccount() error {
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: "Account number is not resolved yet.",
	}
}
