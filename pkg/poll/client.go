// Package poll implements the adaptive polling client used by the hospital
// booking front ends in place of a push channel.
//
// A Client owns the shared configuration and credential and a registry of
// Sessions. Each Session polls one endpoint on its own goroutine, follows the
// server's recommendedInterval within the configured bounds, and retries
// failures with capped exponential backoff until MaxRetries is exceeded.
package poll

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/Alwanly/hospital-polling/pkg/logger"
)

// Client is the session registry.
type Client struct {
	cfg   Config
	fetch fetcher
	log   *logger.CanonicalLogger

	tokenMu   sync.RWMutex
	authToken string

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewClient validates cfg and creates a Client.
func NewClient(cfg Config, log *logger.CanonicalLogger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		log:      log.Component("poll-client"),
		sessions: make(map[string]*Session),
	}
	c.fetch = NewTransport(cfg.BaseURL, cfg.RequestTimeout, c.AuthToken, c.log)

	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// SetAuthToken replaces the bearer credential used by every session from its
// next request on. An empty token removes the Authorization header.
func (c *Client) SetAuthToken(token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.authToken = token
}

// AuthToken returns the current bearer credential.
func (c *Client) AuthToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.authToken
}

// StartPolling creates and starts a session. The first request is issued
// immediately. Starting an id that is already active fails with
// ErrDuplicateSession and leaves the running session untouched.
func (c *Client) StartPolling(id, endpoint string, opts Options) (*Session, error) {
	if id == "" || endpoint == "" {
		return nil, ErrInvalidSession
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if _, exists := c.sessions[id]; exists {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}
	s := newSession(id, endpoint, c.cfg, c.fetch, opts, c.remove, c.log)
	c.sessions[id] = s
	c.mu.Unlock()

	go s.run()

	return s, nil
}

// remove drops s from the registry if it is still the registered session for its id.
func (c *Client) remove(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.sessions[s.id]; ok && current == s {
		delete(c.sessions, s.id)
	}
}

// Session looks up an active session.
func (c *Client) Session(id string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	return s, ok
}

// StopPolling stops the session with the given id and reports whether one was active.
func (c *Client) StopPolling(id string) bool {
	s, ok := c.Session(id)
	if !ok {
		return false
	}
	s.Stop()
	return true
}

// StopAllPolling stops and removes every active session.
func (c *Client) StopAllPolling() {
	for _, s := range c.snapshot() {
		s.Stop()
	}
	c.log.Info("all polling sessions stopped")
}

// ActiveSessions returns the status of every active session, sorted by id.
func (c *Client) ActiveSessions() []Status {
	sessions := c.snapshot()
	statuses := make([]Status, 0, len(sessions))
	for _, s := range sessions {
		statuses = append(statuses, s.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

// Close stops every session, waits for their loops to exit and rejects
// further StartPolling calls. It must not be called from a session callback.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	sessions := c.snapshot()
	for _, s := range sessions {
		s.Stop()
	}
	for _, s := range sessions {
		<-s.Done()
	}
}

func (c *Client) snapshot() []*Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	sessions := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// ResourcesEndpoint returns the resource delta endpoint of a hospital.
func ResourcesEndpoint(hospitalID string) string {
	return hospitalEndpoint(hospitalID, "resources")
}

// BookingsEndpoint returns the booking delta endpoint of a hospital.
func BookingsEndpoint(hospitalID string) string {
	return hospitalEndpoint(hospitalID, "bookings")
}

// DashboardEndpoint returns the dashboard endpoint of a hospital.
func DashboardEndpoint(hospitalID string) string {
	return hospitalEndpoint(hospitalID, "dashboard")
}

// ChangesEndpoint returns the fast change-detection endpoint of a hospital.
func ChangesEndpoint(hospitalID string) string {
	return hospitalEndpoint(hospitalID, "changes")
}

// ConfigEndpoint returns the polling config endpoint of a hospital.
func ConfigEndpoint(hospitalID string) string {
	return hospitalEndpoint(hospitalID, "config")
}

// HealthEndpoint is the polling service health endpoint.
const HealthEndpoint = "/polling/health"

func hospitalEndpoint(hospitalID, feed string) string {
	return fmt.Sprintf("/hospitals/%s/polling/%s", url.PathEscape(hospitalID), feed)
}

// PollResources starts a session on the resources feed of a hospital.
func (c *Client) PollResources(id, hospitalID string, opts Options) (*Session, error) {
	return c.StartPolling(id, ResourcesEndpoint(hospitalID), opts)
}

// PollBookings starts a session on the bookings feed of a hospital.
func (c *Client) PollBookings(id, hospitalID string, opts Options) (*Session, error) {
	return c.StartPolling(id, BookingsEndpoint(hospitalID), opts)
}

// PollDashboard starts a session on the dashboard feed of a hospital.
func (c *Client) PollDashboard(id, hospitalID string, opts Options) (*Session, error) {
	return c.StartPolling(id, DashboardEndpoint(hospitalID), opts)
}

// PollChanges starts a change-detection session. Unless opts.Interval is
// set it starts at ChangesInterval, which is shorter than DefaultInterval.
func (c *Client) PollChanges(id, hospitalID string, opts Options) (*Session, error) {
	if opts.Interval <= 0 {
		opts.Interval = c.cfg.ChangesInterval
	}
	return c.StartPolling(id, ChangesEndpoint(hospitalID), opts)
}
