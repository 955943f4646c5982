package poll

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alwanly/hospital-polling/pkg/logger"
)

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.BaseURL = "/api" }},
		{"min above max", func(c *Config) { c.MinInterval = time.Minute; c.MaxInterval = time.Second }},
		{"default outside bounds", func(c *Config) { c.DefaultInterval = 2 * time.Minute }},
		{"changes outside bounds", func(c *Config) { c.ChangesInterval = time.Millisecond }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero min interval", func(c *Config) { c.MinInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewClient(cfg, logger.NewNop()); err == nil {
				t.Errorf("expected config error")
			}
		})
	}

	if _, err := NewClient(DefaultConfig(), logger.NewNop()); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_NextInterval(t *testing.T) {
	cfg := DefaultConfig()
	current := 10 * time.Second

	tests := []struct {
		name string
		info *PollingInfo
		want time.Duration
	}{
		{"no hint keeps current", nil, current},
		{"in range hint adopted", &PollingInfo{RecommendedInterval: 5000}, 5 * time.Second},
		{"hint at min adopted", &PollingInfo{RecommendedInterval: 1000}, time.Second},
		{"hint at max adopted", &PollingInfo{RecommendedInterval: 60000}, time.Minute},
		{"hint below min keeps current", &PollingInfo{RecommendedInterval: 200}, current},
		{"hint above max keeps current", &PollingInfo{RecommendedInterval: 600000}, current},
		{"negative hint keeps current", &PollingInfo{RecommendedInterval: -5}, current},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.NextInterval(current, tt.info)
			if got != tt.want {
				t.Errorf("NextInterval = %v, want %v", got, tt.want)
			}
			if got < cfg.MinInterval || got > cfg.MaxInterval {
				t.Errorf("NextInterval %v outside bounds", got)
			}
		})
	}
}

func TestClient_DuplicateSessionRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))

	original, err := client.StartPolling("dup", "/first", Options{})
	if err != nil {
		t.Fatalf("StartPolling: %v", err)
	}

	_, err = client.StartPolling("dup", "/second", Options{})
	if !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}

	s, ok := client.Session("dup")
	if !ok || s != original {
		t.Fatal("expected the original session to stay registered")
	}
	if s.Status().Endpoint != "/first" || s.Status().State != StateActive {
		t.Errorf("expected original session untouched, got %+v", s.Status())
	}

	// a stopped id can be started again
	original.Stop()
	if _, err := client.StartPolling("dup", "/second", Options{}); err != nil {
		t.Errorf("expected restart after stop to succeed, got %v", err)
	}
}

func TestClient_InvalidSession(t *testing.T) {
	client := newTestClient(t, testConfig("http://127.0.0.1:1"))

	if _, err := client.StartPolling("", "/x", Options{}); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession for empty id, got %v", err)
	}
	if _, err := client.StartPolling("x", "", Options{}); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession for empty endpoint, got %v", err)
	}
}

func TestClient_TwoSessionsStopOne(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))

	if _, err := client.StartPolling("session-a", "/a", Options{}); err != nil {
		t.Fatalf("StartPolling a: %v", err)
	}
	if _, err := client.StartPolling("session-b", "/b", Options{}); err != nil {
		t.Fatalf("StartPolling b: %v", err)
	}

	active := client.ActiveSessions()
	if len(active) != 2 || active[0].ID != "session-a" || active[1].ID != "session-b" {
		t.Fatalf("expected both sessions, got %+v", active)
	}

	if !client.StopPolling("session-a") {
		t.Fatal("expected StopPolling to report an active session")
	}

	active = client.ActiveSessions()
	if len(active) != 1 || active[0].ID != "session-b" {
		t.Fatalf("expected only session-b, got %+v", active)
	}
}

func TestClient_StopAllPolling(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))

	var sessions []*Session
	for _, id := range []string{"one", "two", "three"} {
		s, err := client.StartPolling(id, "/"+id, Options{})
		if err != nil {
			t.Fatalf("StartPolling %s: %v", id, err)
		}
		sessions = append(sessions, s)
	}

	client.StopAllPolling()

	if n := len(client.ActiveSessions()); n != 0 {
		t.Errorf("expected no active sessions, got %d", n)
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("session %s did not exit", s.ID())
		}
	}
}

func TestClient_FailingSessionDoesNotAffectSiblings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			writeJSON(w, http.StatusBadGateway, `{"error":"upstream down"}`)
			return
		}
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))
	healthy := newCallbacks()

	broken, err := client.StartPolling("broken", "/broken", Options{})
	if err != nil {
		t.Fatalf("StartPolling broken: %v", err)
	}
	if _, err := client.StartPolling("healthy", "/healthy", healthy.options(nil)); err != nil {
		t.Fatalf("StartPolling healthy: %v", err)
	}

	<-broken.Done()
	healthy.nextUpdate(t)

	active := client.ActiveSessions()
	if len(active) != 1 || active[0].ID != "healthy" {
		t.Errorf("expected only the healthy session to remain, got %+v", active)
	}
}

func TestClient_SlowSessionDoesNotDelaySiblings(t *testing.T) {
	release := make(chan struct{})
	slowEntered := make(chan struct{}, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case slowEntered <- struct{}{}:
			default:
			}
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })

	client := newTestClient(t, testConfig(ts.URL))
	slow := newCallbacks()
	fast := newCallbacks()

	if _, err := client.StartPolling("slow", "/slow", slow.options(nil)); err != nil {
		t.Fatalf("StartPolling slow: %v", err)
	}
	select {
	case <-slowEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("slow request never reached the server")
	}

	if _, err := client.StartPolling("fast", "/fast", fast.options(nil)); err != nil {
		t.Fatalf("StartPolling fast: %v", err)
	}

	// DefaultInterval is 50ms, so five updates fit well inside the window
	// while the slow request stays blocked.
	for i := 0; i < 5; i++ {
		fast.nextUpdate(t)
	}

	select {
	case u := <-slow.updates:
		t.Errorf("expected the slow session to still be waiting, got update %s", u.Data)
	case f := <-slow.errors:
		t.Errorf("expected the slow session to still be waiting, got error %v", f.Err)
	default:
	}
	if !hasSession(client, "slow") {
		t.Error("expected the slow session to remain active")
	}
}

func TestClient_SetAuthTokenAppliesToAllSessions(t *testing.T) {
	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))
	a, b := newCallbacks(), newCallbacks()

	if _, err := client.StartPolling("a", "/a", a.options(nil)); err != nil {
		t.Fatalf("StartPolling a: %v", err)
	}
	if _, err := client.StartPolling("b", "/b", b.options(nil)); err != nil {
		t.Fatalf("StartPolling b: %v", err)
	}
	a.nextUpdate(t)
	b.nextUpdate(t)

	for _, req := range rec.all() {
		if req.Header.Get("Authorization") != "" {
			t.Fatalf("expected no Authorization header before a token is set, got %q", req.Header.Get("Authorization"))
		}
		if req.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", req.Header.Get("Content-Type"))
		}
		if req.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("expected caching disabled, got %q", req.Header.Get("Cache-Control"))
		}
	}

	client.SetAuthToken("T")
	marker := rec.count()

	eventually(t, "both sessions send the new token", func() bool {
		reqs := rec.all()[marker:]
		seen := map[string]bool{}
		for _, req := range reqs {
			if req.Header.Get("Authorization") == "Bearer T" {
				seen[req.Path] = true
			}
		}
		return seen["/a"] && seen["/b"]
	})

	for _, req := range rec.all()[marker+2:] {
		if got := req.Header.Get("Authorization"); got != "Bearer T" {
			t.Errorf("expected every later request to carry Bearer T, got %q on %s", got, req.Path)
		}
	}
}

func TestClient_FeedConstructors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)

	cfg := testConfig(ts.URL)
	client := newTestClient(t, cfg)

	tests := []struct {
		name     string
		start    func(id, hospitalID string, opts Options) (*Session, error)
		endpoint string
		interval time.Duration
	}{
		{"resources", client.PollResources, "/hospitals/h-1/polling/resources", cfg.DefaultInterval},
		{"bookings", client.PollBookings, "/hospitals/h-1/polling/bookings", cfg.DefaultInterval},
		{"dashboard", client.PollDashboard, "/hospitals/h-1/polling/dashboard", cfg.DefaultInterval},
		{"changes", client.PollChanges, "/hospitals/h-1/polling/changes", cfg.ChangesInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.start(tt.name, "h-1", Options{})
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			status := s.Status()
			if status.Endpoint != tt.endpoint {
				t.Errorf("expected endpoint %s, got %s", tt.endpoint, status.Endpoint)
			}
			if status.Interval != tt.interval {
				t.Errorf("expected initial interval %v, got %v", tt.interval, status.Interval)
			}
		})
	}
}

func TestClient_PollChangesFasterThanDefault(t *testing.T) {
	client := newTestClient(t, DefaultConfig())

	s, err := client.PollChanges("changes", "hospital-42", Options{})
	if err != nil {
		t.Fatalf("PollChanges: %v", err)
	}
	status := s.Status()
	if status.Endpoint != "/hospitals/hospital-42/polling/changes" {
		t.Errorf("unexpected endpoint %s", status.Endpoint)
	}
	if status.Interval >= client.Config().DefaultInterval {
		t.Errorf("expected changes interval %v below default %v", status.Interval, client.Config().DefaultInterval)
	}
}

func TestClient_CloseRejectsNewSessions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, okEnvelope)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))
	if _, err := client.StartPolling("before", "/x", Options{}); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}

	client.Close()

	if n := len(client.ActiveSessions()); n != 0 {
		t.Errorf("expected Close to stop every session, got %d", n)
	}
	if _, err := client.StartPolling("after", "/x", Options{}); !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestClient_GetPollingConfig(t *testing.T) {
	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"recommendedInterval":15000,"minInterval":5000,"maxInterval":120000}}`)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))
	client.SetAuthToken("probe-token")

	cfg, err := client.GetPollingConfig(context.Background(), "h-7")
	if err != nil {
		t.Fatalf("GetPollingConfig: %v", err)
	}
	if cfg.Recommended() != 15*time.Second || cfg.MinInterval != 5000 || cfg.MaxInterval != 120000 {
		t.Errorf("unexpected config %+v", cfg)
	}

	reqs := rec.all()
	if len(reqs) != 1 || reqs[0].Path != "/hospitals/h-7/polling/config" {
		t.Fatalf("expected one request to the config endpoint, got %+v", reqs)
	}
	if reqs[0].Header.Get("Authorization") != "Bearer probe-token" {
		t.Errorf("expected bearer token on probe, got %q", reqs[0].Header.Get("Authorization"))
	}
	if len(client.ActiveSessions()) != 0 {
		t.Error("probe must not create a session")
	}
}

func TestClient_ProbeFailureIsNotRetried(t *testing.T) {
	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, http.StatusNotFound, `{"error":"hospital not found"}`)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))

	_, err := client.GetPollingConfig(context.Background(), "missing")
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindHTTP || pe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 http error, got %v", err)
	}
	if pe.Message != "hospital not found" {
		t.Errorf("expected body message, got %q", pe.Message)
	}
	if rec.count() != 1 {
		t.Errorf("expected exactly one request, got %d", rec.count())
	}
}

func TestClient_CheckHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != HealthEndpoint {
			writeJSON(w, http.StatusNotFound, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"status":"healthy","timestamp":"2024-01-01T00:00:00Z"}}`)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))

	health, err := client.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.Healthy() || health.Timestamp != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestClient_CheckHealthMissingData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}))
	t.Cleanup(ts.Close)

	client := newTestClient(t, testConfig(ts.URL))

	if _, err := client.CheckHealth(context.Background()); !errors.Is(err, ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}
