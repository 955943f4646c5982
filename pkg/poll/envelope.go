package poll

import "encoding/json"

// Envelope is the response wrapper shared by every polling endpoint.
type Envelope struct {
	Success          bool            `json:"success"`
	Data             json.RawMessage `json:"data,omitempty"`
	PollingInfo      *PollingInfo    `json:"pollingInfo,omitempty"`
	CurrentTimestamp string          `json:"currentTimestamp,omitempty"`
	Error            string          `json:"error,omitempty"`
	Message          string          `json:"message,omitempty"`
}

// PollingInfo carries the server's cadence hint.
type PollingInfo struct {
	// RecommendedInterval is in milliseconds
	RecommendedInterval int64 `json:"recommendedInterval"`
}

// deltaHeader is the part of data the client looks at.
type deltaHeader struct {
	CurrentTimestamp string `json:"currentTimestamp"`
	HasChanges       *bool  `json:"hasChanges"`
}

// Timestamp returns data.currentTimestamp, falling back to the envelope level
// currentTimestamp. It returns "" when neither is present.
func (e *Envelope) Timestamp() string {
	if len(e.Data) > 0 {
		var h deltaHeader
		if err := json.Unmarshal(e.Data, &h); err == nil && h.CurrentTimestamp != "" {
			return h.CurrentTimestamp
		}
	}
	return e.CurrentTimestamp
}

// HasChanges reports data.hasChanges; absent counts as true.
func (e *Envelope) HasChanges() bool {
	if len(e.Data) == 0 {
		return false
	}
	var h deltaHeader
	if err := json.Unmarshal(e.Data, &h); err != nil || h.HasChanges == nil {
		return true
	}
	return *h.HasChanges
}
