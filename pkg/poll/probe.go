package poll

import (
	"context"
	"encoding/json"
	"time"
)

// PollingConfig is a hospital's server-side polling recommendation.
// Intervals are milliseconds on the wire.
type PollingConfig struct {
	RecommendedInterval int64 `json:"recommendedInterval"`
	MinInterval         int64 `json:"minInterval"`
	MaxInterval         int64 `json:"maxInterval"`
}

// Recommended returns RecommendedInterval as a duration.
func (p PollingConfig) Recommended() time.Duration {
	return time.Duration(p.RecommendedInterval) * time.Millisecond
}

// HealthStatus is the polling service health report.
type HealthStatus struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// Healthy reports whether the service declared itself healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy" || h.Status == "ok"
}

// GetPollingConfig fetches the polling config of a hospital once. It does not
// retry and does not create a session.
func (c *Client) GetPollingConfig(ctx context.Context, hospitalID string) (*PollingConfig, error) {
	env, err := c.fetch.Fetch(ctx, ConfigEndpoint(hospitalID), nil)
	if err != nil {
		return nil, err
	}

	var cfg PollingConfig
	if err := decodeData(env, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CheckHealth queries the polling service health endpoint once.
func (c *Client) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	env, err := c.fetch.Fetch(ctx, HealthEndpoint, nil)
	if err != nil {
		return nil, err
	}

	var health HealthStatus
	if err := decodeData(env, &health); err != nil {
		return nil, err
	}
	health.Raw = env.Data
	return &health, nil
}
