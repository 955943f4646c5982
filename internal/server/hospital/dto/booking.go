package dto

import "github.com/Alwanly/hospital-polling/internal/models"

type CreateBookingRequest struct {
	PatientName  string `json:"patientName" validate:"required"`
	ResourceType string `json:"resourceType" validate:"required"`
	Urgency      string `json:"urgency" validate:"required,oneof=low medium high critical"`
}

type BookingsResponse struct {
	HasChanges       bool             `json:"hasChanges"`
	Bookings         []models.Booking `json:"bookings"`
	CurrentTimestamp string           `json:"currentTimestamp"`
}
