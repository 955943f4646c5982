package poll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// Transport issues single polling GET requests and classifies the outcome.
// It never retries; retry belongs to the session.
type Transport struct {
	httpClient *resty.Client
	baseURL    string
	token      func() string
	log        *logger.CanonicalLogger
}

// NewTransport creates a Transport. token is called on every request so a
// credential change applies to the next request of every caller.
func NewTransport(baseURL string, timeout time.Duration, token func() string, log *logger.CanonicalLogger) *Transport {
	return &Transport{
		httpClient: resty.New().SetTimeout(timeout).SetRetryCount(0),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		log:        log,
	}
}

// Fetch performs GET baseURL+endpoint with query as the query string.
func (t *Transport) Fetch(ctx context.Context, endpoint string, query map[string]string) (*Envelope, error) {
	req := t.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Cache-Control", "no-cache").
		SetHeader("Pragma", "no-cache").
		SetQueryParams(query)

	if t.token != nil {
		if token := t.token(); token != "" {
			req.SetAuthToken(token)
		}
	}

	t.log.Debug("sending polling request",
		logger.Endpoint(endpoint),
		logger.Any("query", query),
	)

	resp, err := req.Get(t.baseURL + endpoint)
	if err != nil {
		return nil, networkError(fmt.Errorf("request failed: %w", err))
	}

	body := resp.Body()
	status := resp.StatusCode()

	if !resp.IsSuccess() {
		return nil, httpError(status, failureMessage(status, body))
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, parseError(status, fmt.Errorf("failed to decode envelope: %w", err))
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "envelope reported success=false"
		}
		return nil, httpError(status, msg)
	}

	return &env, nil
}

// failureMessage prefers the body's error field over the status text.
func failureMessage(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// decodeData unmarshals an envelope's data into v, classifying failures as parse errors.
func decodeData(env *Envelope, v any) error {
	if len(env.Data) == 0 {
		return parseError(0, errors.New("envelope has no data"))
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return parseError(0, fmt.Errorf("failed to decode data: %w", err))
	}
	return nil
}
