// Package portal ties the bank feed, the spending guard and the notification
// pipeline together for each signed-in token.
package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/auth"
	"github.com/fatali-fataliyev/banking_portal/internal/money"
	"github.com/fatali-fataliyev/banking_portal/internal/notification"
	"github.com/fatali-fataliyev/banking_portal/internal/spending"
	"github.com/fatali-fataliyev/banking_portal/internal/timestamp"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/robfig/cron/v3"
)

const (
	DefaultIdleTimeout = 15 * time.Minute
	DefaultMaxSessions = 1000
	DefaultReapSpec    = "@every 1m"
)

type Options struct {
	Timezone     string
	PollSpec     string
	DefaultToken string
	// Sessions unused for IdleTimeout are stopped by the reaper.
	IdleTimeout time.Duration
	MaxSessions int
	ReapSpec    string
}

type Portal struct {
	storage      Storage
	StorageType  string
	guard        *spending.Guard
	normalizer   *timestamp.Normalizer
	aggregator   *notification.Aggregator
	newClient    ClientFactory
	pollSpec     string
	defaultToken string
	idleTimeout  time.Duration
	maxSessions  int
	reaper       *cron.Cron
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewPortal(s Storage, newClient ClientFactory, opts Options) *Portal {
	formatter := money.NewVNDFormatter()
	normalizer := timestamp.NewNormalizer(opts.Timezone)
	ctx, cancel := context.WithCancel(context.Background())

	storageType := "unknown"
	if typed, ok := s.(interface{ GetStorageType() string }); ok {
		storageType = typed.GetStorageType()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.ReapSpec == "" {
		opts.ReapSpec = DefaultReapSpec
	}

	p := &Portal{
		storage:      s,
		StorageType:  storageType,
		guard:        spending.NewGuard(s, formatter),
		normalizer:   normalizer,
		aggregator:   notification.NewAggregator(normalizer, notification.NewClassifier(formatter)),
		newClient:    newClient,
		pollSpec:     opts.PollSpec,
		defaultToken: opts.DefaultToken,
		idleTimeout:  opts.IdleTimeout,
		maxSessions:  opts.MaxSessions,
		reaper:       cron.New(),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		sessions:     make(map[string]*Session),
	}

	if _, err := p.reaper.AddFunc(opts.ReapSpec, func() { p.ReapIdle() }); err != nil {
		logging.Logger.Warnf("invalid session reap schedule %q, using %s: %v", opts.ReapSpec, DefaultReapSpec, err)
		p.reaper.AddFunc(DefaultReapSpec, func() { p.ReapIdle() })
	}
	p.reaper.Start()
	return p
}

// Session returns the running session for token, starting one on first use.
// An empty token falls back to the configured service token.
func (p *Portal) Session(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		token = p.defaultToken
	}
	if token == "" {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "No bank token supplied and no default token configured.",
		}
	}

	s, evicted, err := p.session(token, p.now())
	stopSessions(evicted)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Portal) session(token string, now time.Time) (*Session, []*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrUnavailable,
			Message: "Portal is shutting down.",
		}
	}

	if s, ok := p.sessions[token]; ok {
		if s.expired(now) {
			delete(p.sessions, token)
			return nil, []*Session{s}, errExpired()
		}
		s.lastUsed = now
		return s, nil, nil
	}

	var expiresAt time.Time
	if claims, err := auth.ParseClaims(token); err == nil && claims.ExpiresAt > 0 {
		if claims.Expired(now) {
			return nil, nil, errExpired()
		}
		expiresAt = time.Unix(claims.ExpiresAt, 0)
	}

	var evicted []*Session
	if len(p.sessions) >= p.maxSessions {
		evicted = p.reapLocked(now)
		if len(p.sessions) >= p.maxSessions {
			return nil, evicted, appErrors.ErrorResponse{
				Code:    appErrors.ErrUnavailable,
				Message: "Too many active sessions, try again later.",
			}
		}
	}

	s := newSession(p, token, p.newClient(token))
	s.lastUsed = now
	s.expiresAt = expiresAt
	if err := s.refresher.Start(p.ctx); err != nil {
		return nil, evicted, fmt.Errorf("failed to start notification refresher: %w", err)
	}
	p.sessions[token] = s
	return s, evicted, nil
}

// ReapIdle stops sessions that are idle past the timeout or hold an expired
// token, and returns how many were stopped.
func (p *Portal) ReapIdle() int {
	p.mu.Lock()
	evicted := p.reapLocked(p.now())
	p.mu.Unlock()

	stopSessions(evicted)
	if len(evicted) > 0 {
		logging.Logger.Infof("stopped %d idle or expired sessions, %d active", len(evicted), p.ActiveSessions())
	}
	return len(evicted)
}

func (p *Portal) reapLocked(now time.Time) []*Session {
	var evicted []*Session
	for token, s := range p.sessions {
		if s.expired(now) || now.Sub(s.lastUsed) >= p.idleTimeout {
			delete(p.sessions, token)
			evicted = append(evicted, s)
		}
	}
	return evicted
}

func (p *Portal) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// drop removes s after the bank rejected its token. It runs on the session's
// own refresher goroutine, so the refresher is stopped asynchronously.
func (p *Portal) drop(s *Session) {
	p.mu.Lock()
	current, ok := p.sessions[s.token]
	if ok && current == s {
		delete(p.sessions, s.token)
	}
	p.mu.Unlock()

	if ok && current == s {
		go s.refresher.Stop()
	}
}

// Logout stops the session bound to token. Persisted per-account state is kept.
func (p *Portal) Logout(token string) bool {
	if token == "" {
		token = p.defaultToken
	}
	p.mu.Lock()
	s, ok := p.sessions[token]
	delete(p.sessions, token)
	p.mu.Unlock()

	if ok {
		s.refresher.Stop()
	}
	return ok
}

// Close stops every session; later Session calls fail.
func (p *Portal) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	sessions := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessions = map[string]*Session{}
	p.mu.Unlock()

	<-p.reaper.Stop().Done()
	stopSessions(sessions)
	p.cancel()
	logging.Logger.Infof("portal closed, %d sessions stopped", len(sessions))
}

func stopSessions(sessions []*Session) {
	for _, s := range sessions {
		s.refresher.Stop()
	}
}

func errExpired() error {
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: "Token has expired.",
	}
}
