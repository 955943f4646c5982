package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Alwanly/hospital-polling/pkg/poll"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PollerConfig struct {
	Poll      poll.Config
	AuthToken string
	// Redis is nil when REDIS_HOST is unset
	Redis *RedisConfig
}

type SimulatorConfig struct {
	ServerAddr   string
	DatabasePath string
	// APIToken enables bearer authentication when non-empty
	APIToken      string
	StaffUsername string
	StaffPassword string
	// SeedHospitals get a default resource inventory at startup
	SeedHospitals   []string
	DefaultInterval time.Duration
	MinInterval     time.Duration
	MaxInterval     time.Duration
	Redis           *RedisConfig
}

// LoadPollerConfig reads polling client config from environment or returns defaults
func LoadPollerConfig() (*PollerConfig, error) {
	def := poll.DefaultConfig()

	cfg := poll.Config{
		BaseURL:         envOrDefault("POLL_BASE_URL", def.BaseURL),
		DefaultInterval: envMillis("POLL_DEFAULT_INTERVAL_MS", def.DefaultInterval),
		ChangesInterval: envMillis("POLL_CHANGES_INTERVAL_MS", def.ChangesInterval),
		MinInterval:     envMillis("POLL_MIN_INTERVAL_MS", def.MinInterval),
		MaxInterval:     envMillis("POLL_MAX_INTERVAL_MS", def.MaxInterval),
		MaxRetries:      envInt("POLL_MAX_RETRIES", def.MaxRetries),
		RequestTimeout:  envMillis("POLL_REQUEST_TIMEOUT_MS", def.RequestTimeout),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &PollerConfig{
		Poll:      cfg,
		AuthToken: os.Getenv("POLL_AUTH_TOKEN"),
		Redis:     loadRedisConfig(),
	}, nil
}

// LoadSimulatorConfig reads simulator config from environment or returns defaults
func LoadSimulatorConfig() (*SimulatorConfig, error) {
	cfg := &SimulatorConfig{
		ServerAddr:      envOrDefault("SIMULATOR_ADDR", ":3000"),
		DatabasePath:    envOrDefault("DATABASE_PATH", "./data/simulator.db"),
		APIToken:        os.Getenv("SIMULATOR_API_TOKEN"),
		StaffUsername:   os.Getenv("SIMULATOR_STAFF_USERNAME"),
		StaffPassword:   os.Getenv("SIMULATOR_STAFF_PASSWORD"),
		SeedHospitals:   envList("SIMULATOR_SEED_HOSPITALS", []string{"h-1"}),
		DefaultInterval: envMillis("SIMULATOR_DEFAULT_INTERVAL_MS", 10*time.Second),
		MinInterval:     envMillis("SIMULATOR_MIN_INTERVAL_MS", 2*time.Second),
		MaxInterval:     envMillis("SIMULATOR_MAX_INTERVAL_MS", 60*time.Second),
		Redis:           loadRedisConfig(),
	}
	if cfg.MinInterval <= 0 || cfg.MinInterval > cfg.DefaultInterval || cfg.DefaultInterval > cfg.MaxInterval {
		return nil, fmt.Errorf("simulator intervals must satisfy 0 < min <= default <= max, got %s/%s/%s",
			cfg.MinInterval, cfg.DefaultInterval, cfg.MaxInterval)
	}
	return cfg, nil
}

func loadRedisConfig() *RedisConfig {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil
	}
	return &RedisConfig{
		Host:     host,
		Port:     envInt("REDIS_PORT", 6379),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Millisecond
		}
	}
	return def
}
