package poll

import (
	"fmt"
	"time"

	"github.com/Alwanly/hospital-polling/pkg/validator"
)

// Config holds configuration for the polling client
type Config struct {
	// BaseURL is prefixed to every endpoint, e.g. https://api.example.com/api
	BaseURL string `validate:"required,url"`
	// DefaultInterval is the initial interval of a session when none is given
	DefaultInterval time.Duration `validate:"required"`
	// ChangesInterval is the initial interval of change-detection sessions
	ChangesInterval time.Duration `validate:"required"`
	// MinInterval and MaxInterval bound every session interval
	MinInterval time.Duration `validate:"required"`
	MaxInterval time.Duration `validate:"required"`
	// MaxRetries is the number of consecutive failed retries a session
	// tolerates; the failure after that stops the session
	MaxRetries int `validate:"gte=0"`
	// RequestTimeout bounds a single request; zero disables the timeout
	RequestTimeout time.Duration `validate:"gte=0"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:3000/api",
		DefaultInterval: 10 * time.Second,
		ChangesInterval: 3 * time.Second,
		MinInterval:     1 * time.Second,
		MaxInterval:     60 * time.Second,
		MaxRetries:      3,
		RequestTimeout:  15 * time.Second,
	}
}

// Validate checks field constraints and that the intervals are ordered.
func (c Config) Validate() error {
	if err := validator.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid polling config: %w", err)
	}
	if c.MinInterval > c.MaxInterval {
		return fmt.Errorf("invalid polling config: min interval %v above max interval %v", c.MinInterval, c.MaxInterval)
	}
	if c.DefaultInterval < c.MinInterval || c.DefaultInterval > c.MaxInterval {
		return fmt.Errorf("invalid polling config: default interval %v outside [%v, %v]", c.DefaultInterval, c.MinInterval, c.MaxInterval)
	}
	if c.ChangesInterval < c.MinInterval || c.ChangesInterval > c.MaxInterval {
		return fmt.Errorf("invalid polling config: changes interval %v outside [%v, %v]", c.ChangesInterval, c.MinInterval, c.MaxInterval)
	}
	return nil
}

// clamp bounds d to [MinInterval, MaxInterval].
func (c Config) clamp(d time.Duration) time.Duration {
	if d < c.MinInterval {
		return c.MinInterval
	}
	if d > c.MaxInterval {
		return c.MaxInterval
	}
	return d
}

// NextInterval picks the steady-state interval after a successful poll. A
// server recommendation is adopted only when it lies inside the configured
// bounds; otherwise the current interval is kept.
func (c Config) NextInterval(current time.Duration, info *PollingInfo) time.Duration {
	if info == nil || info.RecommendedInterval <= 0 {
		return c.clamp(current)
	}
	recommended := time.Duration(info.RecommendedInterval) * time.Millisecond
	if recommended < c.MinInterval || recommended > c.MaxInterval {
		return c.clamp(current)
	}
	return recommended
}
