package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Alwanly/hospital-polling/internal/models"
	"github.com/Alwanly/hospital-polling/pkg/pubsub"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IRepository interface {
	ListResources(ctx context.Context, hospitalID string) ([]models.Resource, error)
	UpsertResource(ctx context.Context, hospitalID, resourceType string, total, available int) (*models.Resource, error)
	ListBookings(ctx context.Context, hospitalID, status string) ([]models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CountBookings(ctx context.Context, hospitalID, status string) (int64, error)
	ChangedSince(ctx context.Context, hospitalID string, since int64, kinds ...string) ([]models.Change, error)
	ResourcesByID(ctx context.Context, ids []string) ([]models.Resource, error)
	BookingsByID(ctx context.Context, ids []string) ([]models.Booking, error)
	PublishChange(ctx context.Context, hospitalID, kind string, at time.Time) error
}

type Repository struct {
	DB  *gorm.DB
	Pub pubsub.Publisher
}

func NewRepository(db *gorm.DB, publisher pubsub.Publisher) *Repository {
	return &Repository{DB: db, Pub: publisher}
}

func (r *Repository) ListResources(ctx context.Context, hospitalID string) ([]models.Resource, error) {
	resources := []models.Resource{}
	if err := r.DB.WithContext(ctx).Where("hospital_id = ?", hospitalID).Order("resource_type").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

// UpsertResource sets the capacity of a hospital resource and records the
// change in the same transaction.
func (r *Repository) UpsertResource(ctx context.Context, hospitalID, resourceType string, total, available int) (*models.Resource, error) {
	var res models.Resource
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("hospital_id = ? AND resource_type = ?", hospitalID, resourceType).First(&res).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			res = models.Resource{
				ID:           uuid.Must(uuid.NewV7()).String(),
				HospitalID:   hospitalID,
				ResourceType: resourceType,
				Total:        total,
				Available:    available,
			}
			if err := tx.Create(&res).Error; err != nil {
				return fmt.Errorf("failed to create resource: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to get resource: %w", err)
		default:
			res.Total = total
			res.Available = available
			if err := tx.Save(&res).Error; err != nil {
				return fmt.Errorf("failed to update resource: %w", err)
			}
		}
		return recordChange(tx, hospitalID, models.KindResource, res.ID)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Repository) ListBookings(ctx context.Context, hospitalID, status string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	q := r.DB.WithContext(ctx).Where("hospital_id = ?", hospitalID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CreateBooking stores a new booking, assigning its id, and records the change.
func (r *Repository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.Must(uuid.NewV7()).String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingPending
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return recordChange(tx, booking.HospitalID, models.KindBooking, booking.ID)
	})
}

func (r *Repository) CountBookings(ctx context.Context, hospitalID, status string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("hospital_id = ? AND status = ?", hospitalID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// ChangedSince returns change log entries at or after since (unix micro),
// oldest first. No kinds means every kind.
func (r *Repository) ChangedSince(ctx context.Context, hospitalID string, since int64, kinds ...string) ([]models.Change, error) {
	changes := []models.Change{}
	q := r.DB.WithContext(ctx).Where("hospital_id = ? AND at >= ?", hospitalID, since)
	if len(kinds) > 0 {
		q = q.Where("kind IN ?", kinds)
	}
	if err := q.Order("at, id").Find(&changes).Error; err != nil {
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}
	return changes, nil
}

func (r *Repository) ResourcesByID(ctx context.Context, ids []string) ([]models.Resource, error) {
	resources := []models.Resource{}
	if len(ids) == 0 {
		return resources, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("resource_type").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	return resources, nil
}

func (r *Repository) BookingsByID(ctx context.Context, ids []string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if len(ids) == 0 {
		return bookings, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

// PublishChange publishes a change hint to Redis (if configured)
func (r *Repository) PublishChange(ctx context.Context, hospitalID, kind string, at time.Time) error {
	if r.Pub == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(pubsub.ChangeHint{
		HospitalID: hospitalID,
		Kind:       kind,
		At:         at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal change hint: %w", err)
	}

	if err := r.Pub.Publish(ctx, pubsub.ChangesChannel, string(payload)); err != nil {
		return fmt.Errorf("failed to publish change hint: %w", err)
	}
	return nil
}

func recordChange(tx *gorm.DB, hospitalID, kind, entityID string) error {
	change := models.Change{
		HospitalID: hospitalID,
		Kind:       kind,
		EntityID:   entityID,
		At:         time.Now().UnixMicro(),
	}
	if err := tx.Create(&change).Error; err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}
	return nil
}
