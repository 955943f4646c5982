package poll

import (
	"context"
	"encoding/json"
	"time"
)

// Updater receives the opaque data payload of every successful poll.
type Updater interface {
	OnUpdate(data json.RawMessage, sessionID string)
}

// ErrorHandler receives every failed poll together with the session's
// retry count after the failure.
type ErrorHandler interface {
	OnError(err error, sessionID string, retryCount int)
}

// UpdateFunc adapts a plain function to Updater.
type UpdateFunc func(data json.RawMessage, sessionID string)

func (f UpdateFunc) OnUpdate(data json.RawMessage, sessionID string) {
	f(data, sessionID)
}

// ErrorFunc adapts a plain function to ErrorHandler.
type ErrorFunc func(err error, sessionID string, retryCount int)

func (f ErrorFunc) OnError(err error, sessionID string, retryCount int) {
	f(err, sessionID, retryCount)
}

// Options configure a single session.
type Options struct {
	// Params are sent as query parameters on every request
	Params map[string]any
	// LastUpdate seeds the lastUpdate query parameter of the first request
	LastUpdate string
	// Interval overrides the initial interval; it is clamped to the client bounds
	Interval     time.Duration
	Updater      Updater
	ErrorHandler ErrorHandler
}

// fetcher issues one polling request. Transport is the production implementation.
type fetcher interface {
	Fetch(ctx context.Context, endpoint string, query map[string]string) (*Envelope, error)
}
