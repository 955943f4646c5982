package handler

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Alwanly/hospital-polling/internal/config"
	"github.com/Alwanly/hospital-polling/pkg/database"
	"github.com/Alwanly/hospital-polling/pkg/deps"
	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/middleware"
	"github.com/gofiber/fiber/v2"

	authentication "github.com/Alwanly/hospital-polling/pkg/auth"
)

const staffUser, staffPass = "staff", "pw"

type envelope struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error"`
	Data        json.RawMessage `json:"data"`
	PollingInfo *struct {
		RecommendedInterval int64 `json:"recommendedInterval"`
	} `json:"pollingInfo"`
}

func setupApp(t *testing.T, apiToken string) *fiber.App {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if conn, err := db.DB(); err == nil {
			conn.Close()
		}
	})

	log := logger.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	app.Use(middleware.CanonicalLoggerMiddleware(log))

	cfg := &config.SimulatorConfig{
		APIToken:        apiToken,
		DefaultInterval: 10 * time.Second,
		MinInterval:     2 * time.Second,
		MaxInterval:     time.Minute,
	}
	NewHandler(deps.App{
		Fiber:    app,
		Database: db,
		Logger:   log,
		Middleware: middleware.NewAuthMiddleware(middleware.SetBasicAuth(&authentication.BasicAuthTConfig{
			Username: staffUser,
			Password: staffPass,
		})),
	}, cfg)
	return app
}

func call(t *testing.T, app *fiber.App, method, target, body string, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("response is not an envelope: %v (%s)", err, raw)
	}
	return resp.StatusCode, env
}

func staffHeader() []string {
	return []string{"Authorization", "Basic " + base64.StdEncoding.EncodeToString([]byte(staffUser+":"+staffPass))}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("failed to decode data: %v (%s)", err, raw)
	}
	return v
}

type changesData struct {
	HasChanges bool `json:"hasChanges"`
	Changes    struct {
		Resources []struct {
			ResourceType string `json:"resourceType"`
			Available    int    `json:"available"`
		} `json:"resources"`
		Bookings []struct {
			PatientName string `json:"patientName"`
		} `json:"bookings"`
	} `json:"changes"`
	CurrentTimestamp string `json:"currentTimestamp"`
}

func TestHealth(t *testing.T) {
	app := setupApp(t, "tok")

	status, env := call(t, app, http.MethodGet, "/polling/health", "")
	if status != http.StatusOK || !env.Success {
		t.Fatalf("unexpected health response %d %+v", status, env)
	}
	data := decode[struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}](t, env.Data)
	if data.Status != "healthy" || data.Timestamp == "" {
		t.Errorf("unexpected health data %+v", data)
	}
}

func TestPolling_RequiresBearerToken(t *testing.T) {
	app := setupApp(t, "tok")

	status, env := call(t, app, http.MethodGet, "/hospitals/h-1/polling/resources", "")
	if status != http.StatusUnauthorized || env.Success || env.Error == "" {
		t.Errorf("expected 401 failure envelope, got %d %+v", status, env)
	}

	status, _ = call(t, app, http.MethodGet, "/hospitals/h-1/polling/resources", "", "Authorization", "Bearer tok")
	if status != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", status)
	}
}

func TestChangeFeedFlow(t *testing.T) {
	app := setupApp(t, "")

	status, env := call(t, app, http.MethodGet, "/hospitals/h-1/polling/changes", "")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	first := decode[changesData](t, env.Data)
	if first.HasChanges {
		t.Errorf("expected empty change feed initially, got %+v", first)
	}
	if env.PollingInfo == nil || env.PollingInfo.RecommendedInterval != 10000 {
		t.Errorf("expected default interval recommendation when idle, got %+v", env.PollingInfo)
	}

	status, _ = call(t, app, http.MethodPut, "/hospitals/h-1/resources/icu_bed", `{"total":10,"available":3}`, staffHeader()...)
	if status != http.StatusOK {
		t.Fatalf("update resource: unexpected status %d", status)
	}
	status, _ = call(t, app, http.MethodPost, "/hospitals/h-1/bookings", `{"patientName":"Jane","resourceType":"icu_bed","urgency":"critical"}`, staffHeader()...)
	if status != http.StatusCreated {
		t.Fatalf("create booking: unexpected status %d", status)
	}

	target := "/hospitals/h-1/polling/changes?lastUpdate=" + url.QueryEscape(first.CurrentTimestamp)
	_, env = call(t, app, http.MethodGet, target, "")
	second := decode[changesData](t, env.Data)
	if !second.HasChanges || len(second.Changes.Resources) != 1 || len(second.Changes.Bookings) != 1 {
		t.Fatalf("expected one resource and one booking change, got %+v", second)
	}
	if second.Changes.Resources[0].Available != 3 || second.Changes.Bookings[0].PatientName != "Jane" {
		t.Errorf("unexpected change contents %+v", second.Changes)
	}
	if env.PollingInfo == nil || env.PollingInfo.RecommendedInterval != 2000 {
		t.Errorf("expected min interval recommendation while active, got %+v", env.PollingInfo)
	}

	target = "/hospitals/h-1/polling/changes?lastUpdate=" + url.QueryEscape(second.CurrentTimestamp)
	_, env = call(t, app, http.MethodGet, target, "")
	if third := decode[changesData](t, env.Data); third.HasChanges {
		t.Errorf("expected no changes after catching up, got %+v", third)
	}

	// other hospitals are unaffected
	_, env = call(t, app, http.MethodGet, "/hospitals/h-2/polling/changes", "")
	if other := decode[changesData](t, env.Data); other.HasChanges {
		t.Errorf("expected no changes for h-2, got %+v", other)
	}
}

func TestPollResourcesAndDashboard(t *testing.T) {
	app := setupApp(t, "")

	call(t, app, http.MethodPut, "/hospitals/h-1/resources/icu_bed", `{"total":10,"available":4}`, staffHeader()...)
	call(t, app, http.MethodPut, "/hospitals/h-1/resources/ventilator", `{"total":5,"available":5}`, staffHeader()...)
	call(t, app, http.MethodPost, "/hospitals/h-1/bookings", `{"patientName":"A","resourceType":"icu_bed","urgency":"high"}`, staffHeader()...)

	_, env := call(t, app, http.MethodGet, "/hospitals/h-1/polling/resources", "")
	resources := decode[struct {
		HasChanges bool `json:"hasChanges"`
		Resources  []struct {
			ResourceType string `json:"resourceType"`
		} `json:"resources"`
		CurrentTimestamp string `json:"currentTimestamp"`
	}](t, env.Data)
	if !resources.HasChanges || len(resources.Resources) != 2 || resources.CurrentTimestamp == "" {
		t.Errorf("unexpected resources data %+v", resources)
	}

	_, env = call(t, app, http.MethodGet, "/hospitals/h-1/polling/resources?lastUpdate="+url.QueryEscape(resources.CurrentTimestamp), "")
	again := decode[struct {
		HasChanges bool `json:"hasChanges"`
	}](t, env.Data)
	if again.HasChanges {
		t.Error("expected no resource changes since the previous response")
	}

	_, env = call(t, app, http.MethodGet, "/hospitals/h-1/polling/dashboard", "")
	dash := decode[struct {
		Totals struct {
			Total     int `json:"total"`
			Available int `json:"available"`
		} `json:"totals"`
		PendingBookings int64 `json:"pendingBookings"`
	}](t, env.Data)
	if dash.Totals.Total != 15 || dash.Totals.Available != 9 || dash.PendingBookings != 1 {
		t.Errorf("unexpected dashboard %+v", dash)
	}
}

func TestPollBookings_StatusFilter(t *testing.T) {
	app := setupApp(t, "")
	call(t, app, http.MethodPost, "/hospitals/h-1/bookings", `{"patientName":"A","resourceType":"icu_bed","urgency":"low"}`, staffHeader()...)

	_, env := call(t, app, http.MethodGet, "/hospitals/h-1/polling/bookings?status=pending", "")
	pending := decode[struct {
		Bookings []json.RawMessage `json:"bookings"`
	}](t, env.Data)
	if len(pending.Bookings) != 1 {
		t.Errorf("expected 1 pending booking, got %d", len(pending.Bookings))
	}

	_, env = call(t, app, http.MethodGet, "/hospitals/h-1/polling/bookings?status=confirmed", "")
	confirmed := decode[struct {
		Bookings []json.RawMessage `json:"bookings"`
	}](t, env.Data)
	if len(confirmed.Bookings) != 0 {
		t.Errorf("expected no confirmed bookings, got %d", len(confirmed.Bookings))
	}
}

func TestPollingConfig(t *testing.T) {
	app := setupApp(t, "")

	_, env := call(t, app, http.MethodGet, "/hospitals/h-1/polling/config", "")
	cfg := decode[struct {
		RecommendedInterval int64 `json:"recommendedInterval"`
		MinInterval         int64 `json:"minInterval"`
		MaxInterval         int64 `json:"maxInterval"`
	}](t, env.Data)
	if cfg.RecommendedInterval != 10000 || cfg.MinInterval != 2000 || cfg.MaxInterval != 60000 {
		t.Errorf("unexpected polling config %+v", cfg)
	}
}

func TestInvalidRequests(t *testing.T) {
	app := setupApp(t, "")

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		headers    []string
		wantStatus int
	}{
		{"bad lastUpdate", http.MethodGet, "/hospitals/h-1/polling/changes?lastUpdate=yesterday", "", nil, http.StatusBadRequest},
		{"missing staff auth", http.MethodPost, "/hospitals/h-1/bookings", `{"patientName":"A","resourceType":"icu_bed","urgency":"low"}`, nil, http.StatusUnauthorized},
		{"unknown urgency", http.MethodPost, "/hospitals/h-1/bookings", `{"patientName":"A","resourceType":"icu_bed","urgency":"whenever"}`, staffHeader(), http.StatusBadRequest},
		{"missing patient", http.MethodPost, "/hospitals/h-1/bookings", `{"resourceType":"icu_bed","urgency":"low"}`, staffHeader(), http.StatusBadRequest},
		{"available exceeds total", http.MethodPut, "/hospitals/h-1/resources/icu_bed", `{"total":2,"available":3}`, staffHeader(), http.StatusBadRequest},
		{"missing total", http.MethodPut, "/hospitals/h-1/resources/icu_bed", `{"available":3}`, staffHeader(), http.StatusBadRequest},
		{"malformed body", http.MethodPut, "/hospitals/h-1/resources/icu_bed", `{"total":`, staffHeader(), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, app, tt.method, tt.target, tt.body, tt.headers...)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
			if env.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}
