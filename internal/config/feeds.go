package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feed kinds understood by the poller CLI.
const (
	FeedResources = "resources"
	FeedBookings  = "bookings"
	FeedDashboard = "dashboard"
	FeedChanges   = "changes"
)

// FeedsFile lists the sessions the poller CLI runs.
//
// Example:
//
//	hospital_id: h-1
//	feeds:
//	  - id: icu-beds
//	    kind: resources
//	    params:
//	      resourceType: icu_bed
//	  - id: audit
//	    endpoint: /hospitals/h-1/polling/bookings
//	    interval_ms: 15000
type FeedsFile struct {
	HospitalID string `yaml:"hospital_id"`
	Feeds      []Feed `yaml:"feeds"`
}

// Feed is one polling session. Kind selects a known endpoint of HospitalID;
// Endpoint overrides it with an explicit path.
type Feed struct {
	ID         string         `yaml:"id"`
	Kind       string         `yaml:"kind"`
	Endpoint   string         `yaml:"endpoint"`
	HospitalID string         `yaml:"hospital_id"`
	IntervalMs int            `yaml:"interval_ms"`
	Params     map[string]any `yaml:"params"`
}

// LoadFeeds reads and validates a feeds file.
func LoadFeeds(path string) (*FeedsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}
	return ParseFeeds(data)
}

// ParseFeeds parses feeds YAML and fills each feed's hospital id from the
// file level default.
func ParseFeeds(data []byte) (*FeedsFile, error) {
	var f FeedsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	if len(f.Feeds) == 0 {
		return nil, errors.New("feeds file defines no feeds")
	}

	seen := make(map[string]bool, len(f.Feeds))
	for i := range f.Feeds {
		feed := &f.Feeds[i]
		if feed.HospitalID == "" {
			feed.HospitalID = f.HospitalID
		}
		if feed.ID == "" {
			return nil, fmt.Errorf("feed %d: id is required", i)
		}
		if seen[feed.ID] {
			return nil, fmt.Errorf("feed %q: duplicate id", feed.ID)
		}
		seen[feed.ID] = true

		if feed.Endpoint != "" {
			continue
		}
		switch feed.Kind {
		case FeedResources, FeedBookings, FeedDashboard, FeedChanges:
		case "":
			return nil, fmt.Errorf("feed %q: kind or endpoint is required", feed.ID)
		default:
			return nil, fmt.Errorf("feed %q: unknown kind %q", feed.ID, feed.Kind)
		}
		if feed.HospitalID == "" {
			return nil, fmt.Errorf("feed %q: hospital_id is required for kind %s", feed.ID, feed.Kind)
		}
	}

	return &f, nil
}
