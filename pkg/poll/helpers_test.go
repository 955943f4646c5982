package poll

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Alwanly/hospital-polling/pkg/logger"
)

type recordedRequest struct {
	Path     string
	RawQuery string
	Query    url.Values
	Header   http.Header
}

// recorder keeps every request a test server received.
type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, recordedRequest{
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
		Query:    req.URL.Query(),
		Header:   req.Header.Clone(),
	})
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedRequest, len(r.reqs))
	copy(out, r.reqs)
	return out
}

func (r *recorder) forPath(path string) []recordedRequest {
	var out []recordedRequest
	for _, req := range r.all() {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

type update struct {
	Data      json.RawMessage
	SessionID string
}

type failure struct {
	Err        error
	SessionID  string
	RetryCount int
}

// callbacks collects session callbacks on buffered channels.
type callbacks struct {
	updates chan update
	errors  chan failure
}

func newCallbacks() *callbacks {
	return &callbacks{
		updates: make(chan update, 64),
		errors:  make(chan failure, 64),
	}
}

func (c *callbacks) options(params map[string]any) Options {
	return Options{
		Params: params,
		Updater: UpdateFunc(func(data json.RawMessage, sessionID string) {
			select {
			case c.updates <- update{Data: data, SessionID: sessionID}:
			default:
			}
		}),
		ErrorHandler: ErrorFunc(func(err error, sessionID string, retryCount int) {
			select {
			case c.errors <- failure{Err: err, SessionID: sessionID, RetryCount: retryCount}:
			default:
			}
		}),
	}
}

func (c *callbacks) nextUpdate(t *testing.T) update {
	t.Helper()
	select {
	case u := <-c.updates:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	return update{}
}

func (c *callbacks) nextError(t *testing.T) failure {
	t.Helper()
	select {
	case f := <-c.errors:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	return failure{}
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		DefaultInterval: 50 * time.Millisecond,
		ChangesInterval: 20 * time.Millisecond,
		MinInterval:     10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
		MaxRetries:      2,
		RequestTimeout:  2 * time.Second,
	}
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := NewClient(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func eventually(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// okEnvelope is a success envelope without a cadence hint.
const okEnvelope = `{"success":true,"data":{"hasChanges":false}}`

func hasSession(c *Client, id string) bool {
	for _, s := range c.ActiveSessions() {
		if s.ID == id {
			return true
		}
	}
	return false
}

// instantFetcher answers every request immediately with env or err.
type instantFetcher struct {
	env *Envelope
	err error
}

func (f instantFetcher) Fetch(ctx context.Context, endpoint string, query map[string]string) (*Envelope, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.env, nil
}

// tightConfig reschedules almost immediately so callbacks dispatch back to back.
func tightConfig() Config {
	return Config{
		DefaultInterval: time.Nanosecond,
		ChangesInterval: time.Nanosecond,
		MinInterval:     time.Nanosecond,
		MaxInterval:     time.Nanosecond,
		MaxRetries:      1 << 20,
	}
}
