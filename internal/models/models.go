package models

import "time"

// Change kinds recorded in the change log and published as hints.
const (
	KindResource = "resource"
	KindBooking  = "booking"
)

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
)

type Resource struct {
	ID           string    `gorm:"primaryKey;column:id" json:"id"`
	HospitalID   string    `gorm:"column:hospital_id;uniqueIndex:idx_hospital_resource" json:"hospitalId"`
	ResourceType string    `gorm:"column:resource_type;uniqueIndex:idx_hospital_resource" json:"resourceType"`
	Total        int       `gorm:"column:total" json:"total"`
	Available    int       `gorm:"column:available" json:"available"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Resource) TableName() string {
	return "resources"
}

type Booking struct {
	ID           string    `gorm:"primaryKey;column:id" json:"id"`
	HospitalID   string    `gorm:"column:hospital_id;index" json:"hospitalId"`
	PatientName  string    `gorm:"column:patient_name" json:"patientName"`
	ResourceType string    `gorm:"column:resource_type" json:"resourceType"`
	Urgency      string    `gorm:"column:urgency" json:"urgency"`
	Status       string    `gorm:"column:status;index" json:"status"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Change is one entry of the per-hospital change log. At is in unix
// microseconds so it compares exactly against parsed lastUpdate values.
type Change struct {
	ID         int64  `gorm:"primaryKey;autoIncrement;column:id"`
	HospitalID string `gorm:"column:hospital_id;index:idx_change_lookup"`
	Kind       string `gorm:"column:kind;index:idx_change_lookup"`
	EntityID   string `gorm:"column:entity_id"`
	At         int64  `gorm:"column:at;index:idx_change_lookup"`
}

func (Change) TableName() string {
	return "changes"
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
