package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/fatali-fataliyev/banking_portal/internal/contextutil"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// LoadFunc recomputes the notification list from fresh data.
type LoadFunc func(ctx context.Context) Result

// Refresher reruns a LoadFunc on a schedule and on demand. Scheduled ticks and
// Trigger calls coalesce into a single pending request handled by one goroutine,
// and RefreshNow shares the same lock, so passes never overlap.
type Refresher struct {
	load      LoadFunc
	spec      string
	scheduler *cron.Cron
	requests  chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup

	passMu sync.Mutex

	mu       sync.RWMutex
	latest   Result
	onUpdate func(Result)
	started  bool
	stopped  bool
}

func NewRefresher(spec string, load LoadFunc) *Refresher {
	return &Refresher{
		load:      load,
		spec:      spec,
		scheduler: cron.New(),
		requests:  make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
}

// OnUpdate registers fn to receive every published result.
func (r *Refresher) OnUpdate(fn func(Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = fn
}

// Start schedules polling, begins consuming refresh requests and queues an initial pass.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("refresher already started")
	}

	if _, err := r.scheduler.AddFunc(r.spec, r.Trigger); err != nil {
		return fmt.Errorf("invalid poll schedule %q: %w", r.spec, err)
	}
	r.started = true
	r.scheduler.Start()

	r.wg.Add(1)
	go r.run(ctx)

	r.Trigger()
	logging.Logger.Infof("notification refresher started, schedule: %s", r.spec)
	return nil
}

// Trigger asks for a refresh; it never blocks and collapses into any pending request.
func (r *Refresher) Trigger() {
	select {
	case r.requests <- struct{}{}:
	default:
	}
}

// RefreshNow runs a pass synchronously and returns its result.
func (r *Refresher) RefreshNow(ctx context.Context) Result {
	return r.pass(ctx)
}

func (r *Refresher) Latest() Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Edit replaces the latest result with fn(latest) and publishes it.
func (r *Refresher) Edit(fn func(Result) Result) Result {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	r.mu.RLock()
	edited := fn(r.latest)
	r.mu.RUnlock()
	r.publish(edited)
	return edited
}

// Stop releases the schedule and the consumer together and waits for an in-flight pass.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	<-r.scheduler.Stop().Done()
	close(r.stop)
	r.wg.Wait()
	logging.Logger.Info("notification refresher stopped")
}

// Stopped reports whether Stop has been called.
func (r *Refresher) Stopped() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stopped
}

func (r *Refresher) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-r.requests:
			r.pass(ctx)
		}
	}
}

func (r *Refresher) pass(parent context.Context) Result {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	ctx := contextutil.WithTraceID(parent, uuid.New().String())
	result := r.load(ctx)
	r.publish(result)

	logging.Logger.Debugf("[TraceID=%s] | notifications refreshed, total: %d, unread: %d",
		contextutil.TraceIDFromContext(ctx), len(result.Notifications), result.UnreadCount)
	return result
}

func (r *Refresher) publish(result Result) {
	r.mu.Lock()
	r.latest = result
	onUpdate := r.onUpdate
	stopped := r.stopped
	r.mu.Unlock()

	if onUpdate != nil && !stopped {
		onUpdate(result)
	}
}
