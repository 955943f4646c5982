package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/retry"
	"go.uber.org/zap"
)

// State is the lifecycle state of a session. StateStopped is terminal.
type State string

const (
	StateActive  State = "active"
	StateStopped State = "stopped"
)

// Status is a read-only snapshot of a session.
type Status struct {
	ID         string         `json:"id"`
	Endpoint   string         `json:"endpoint"`
	Interval   time.Duration  `json:"-"`
	IntervalMs int64          `json:"intervalMs"`
	RetryCount int            `json:"retryCount"`
	LastUpdate string         `json:"lastUpdate,omitempty"`
	State      State          `json:"state"`
	Params     map[string]any `json:"params,omitempty"`
}

// Session is one independently scheduled polling loop against a fixed endpoint.
//
// The loop runs on its own goroutine. A request is issued immediately on
// start and the next one is scheduled only after the current one settles, so
// a session never has two requests in flight.
type Session struct {
	id       string
	endpoint string
	cfg      Config
	fetch    fetcher
	updater  Updater
	errors   ErrorHandler
	detach   func(*Session)
	log      *logger.CanonicalLogger

	// dispatch is held while a callback runs so Stop can wait it out.
	dispatch sync.Mutex

	mu         sync.Mutex
	params     map[string]any
	lastUpdate string
	interval   time.Duration
	retryCount int
	state      State

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}
}

func newSession(id, endpoint string, cfg Config, f fetcher, opts Options, detach func(*Session), log *logger.CanonicalLogger) *Session {
	params := make(map[string]any, len(opts.Params))
	for k, v := range opts.Params {
		params[k] = v
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		id:         id,
		endpoint:   endpoint,
		cfg:        cfg,
		fetch:      f,
		updater:    opts.Updater,
		errors:     opts.ErrorHandler,
		detach:     detach,
		log:        log.WithSessionID(id),
		params:     params,
		lastUpdate: opts.LastUpdate,
		interval:   cfg.clamp(interval),
		state:      StateActive,
		ctx:        ctx,
		cancel:     cancel,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Stop halts the session and removes it from its client. A request already
// in flight is aborted and its result discarded. If a callback is running,
// Stop waits for it to return, so no callback fires after Stop returns.
// Stop is idempotent. It must not be called from the session's own callbacks.
func (s *Session) Stop() {
	if !s.markStopped() {
		return
	}
	s.cancel()
	if s.detach != nil {
		s.detach(s)
	}
	s.dispatch.Lock()
	s.dispatch.Unlock()
	s.log.Info("polling session stopped", logger.Endpoint(s.endpoint))
}

// markStopped moves the session to StateStopped and reports whether this call did it.
func (s *Session) markStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return false
	}
	s.state = StateStopped
	return true
}

// UpdateParams merges partial into the current params. Keys missing from
// partial are kept. The change applies from the next request.
func (s *Session) UpdateParams(partial map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range partial {
		s.params[k] = v
	}
}

// PollNow wakes a waiting session so the next request goes out immediately.
// If a request is in flight the wake-up applies once it settles.
func (s *Session) PollNow() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	params := make(map[string]any, len(s.params))
	for k, v := range s.params {
		params[k] = v
	}

	return Status{
		ID:         s.id,
		Endpoint:   s.endpoint,
		Interval:   s.interval,
		IntervalMs: s.interval.Milliseconds(),
		RetryCount: s.retryCount,
		LastUpdate: s.lastUpdate,
		State:      s.state,
		Params:     params,
	}
}

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// run is the session loop.
func (s *Session) run() {
	defer close(s.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	s.log.Info("polling session started",
		logger.Endpoint(s.endpoint),
		logger.Interval(logger.FieldInterval, s.interval),
	)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
		}

		delay, ok := s.tick()
		if !ok {
			return
		}
		timer.Reset(delay)
	}
}

// tick performs one request and returns the delay before the next one.
// ok is false when the session must not be rescheduled.
func (s *Session) tick() (delay time.Duration, ok bool) {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return 0, false
	}
	query := buildQuery(s.params, s.lastUpdate)
	s.mu.Unlock()

	env, err := s.fetch.Fetch(s.ctx, s.endpoint, query)

	s.mu.Lock()
	if s.state == StateStopped {
		// stopped while the request was in flight
		s.mu.Unlock()
		return 0, false
	}
	if err != nil {
		return s.failed(err)
	}
	return s.succeeded(env)
}

// failed handles a failed request. Called with s.mu held; releases it.
func (s *Session) failed(err error) (time.Duration, bool) {
	s.retryCount++
	retries := s.retryCount
	interval := s.interval
	exhausted := retries > s.cfg.MaxRetries
	s.mu.Unlock()

	s.log.Warn("poll failed",
		zap.Error(err),
		logger.String(logger.FieldErrorKind, string(KindOf(err))),
		logger.Retries(retries),
		logger.Int(logger.FieldMaxRetries, s.cfg.MaxRetries),
	)

	delivered := s.deliver(func() {
		if s.errors != nil {
			s.errors.OnError(err, s.id, retries)
		}
	})
	if !delivered {
		return 0, false
	}

	if exhausted {
		if s.markStopped() {
			s.cancel()
			if s.detach != nil {
				s.detach(s)
			}
			s.log.Error("polling session exhausted retries",
				logger.Endpoint(s.endpoint),
				logger.Retries(retries),
			)
		}
		return 0, false
	}

	return retry.Backoff(interval, retries, s.cfg.MaxInterval), true
}

// succeeded handles a successful request. Called with s.mu held; releases it.
func (s *Session) succeeded(env *Envelope) (time.Duration, bool) {
	s.retryCount = 0
	if ts := env.Timestamp(); ts != "" {
		s.lastUpdate = ts
	}
	previous := s.interval
	s.interval = s.cfg.NextInterval(previous, env.PollingInfo)
	interval := s.interval
	lastUpdate := s.lastUpdate
	s.mu.Unlock()

	if interval != previous {
		s.log.Info("polling interval adjusted",
			logger.Interval(logger.FieldPreviousInterval, previous),
			logger.Interval(logger.FieldInterval, interval),
		)
	}
	s.log.Debug("poll succeeded",
		logger.Bool(logger.FieldHasChanges, env.HasChanges()),
		logger.String(logger.FieldLastUpdate, lastUpdate),
	)

	delivered := s.deliver(func() {
		if s.updater != nil {
			s.updater.OnUpdate(env.Data, s.id)
		}
	})
	return interval, delivered
}

// deliver runs fn under the dispatch lock unless the session has been
// stopped, and reports whether it ran.
func (s *Session) deliver(fn func()) bool {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	active := s.state == StateActive
	s.mu.Unlock()
	if !active {
		return false
	}

	fn()
	return true
}

// buildQuery renders scalar params plus lastUpdate as query values.
func buildQuery(params map[string]any, lastUpdate string) map[string]string {
	query := make(map[string]string, len(params)+1)
	for k, v := range params {
		if v == nil {
			continue
		}
		query[k] = fmt.Sprint(v)
	}
	if lastUpdate != "" {
		query["lastUpdate"] = lastUpdate
	}
	return query
}
