package dto

import "github.com/Alwanly/hospital-polling/internal/models"

type DashboardTotals struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

type DashboardResponse struct {
	HasChanges       bool            `json:"hasChanges"`
	Totals           DashboardTotals `json:"totals"`
	PendingBookings  int64           `json:"pendingBookings"`
	CurrentTimestamp string          `json:"currentTimestamp"`
}

type ChangeSet struct {
	Resources []models.Resource `json:"resources"`
	Bookings  []models.Booking  `json:"bookings"`
}

type ChangesResponse struct {
	HasChanges       bool      `json:"hasChanges"`
	Changes          ChangeSet `json:"changes"`
	CurrentTimestamp string    `json:"currentTimestamp"`
}

// PollingConfigResponse values are milliseconds.
type PollingConfigResponse struct {
	RecommendedInterval int64 `json:"recommendedInterval"`
	MinInterval         int64 `json:"minInterval"`
	MaxInterval         int64 `json:"maxInterval"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
