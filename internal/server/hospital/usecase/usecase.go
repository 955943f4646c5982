package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Alwanly/hospital-polling/internal/config"
	"github.com/Alwanly/hospital-polling/internal/models"
	"github.com/Alwanly/hospital-polling/internal/server/hospital/dto"
	"github.com/Alwanly/hospital-polling/internal/server/hospital/repository"
	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/wrapper"
	"go.uber.org/zap"
)

type UseCaseInterface interface {
	PollResources(ctx context.Context, hospitalID, lastUpdate string) wrapper.JSONResult
	PollBookings(ctx context.Context, hospitalID, lastUpdate, status string) wrapper.JSONResult
	PollDashboard(ctx context.Context, hospitalID, lastUpdate string) wrapper.JSONResult
	PollChanges(ctx context.Context, hospitalID, lastUpdate string) wrapper.JSONResult
	PollingConfig(ctx context.Context, hospitalID string) wrapper.JSONResult
	Health(ctx context.Context) wrapper.JSONResult
	UpdateResource(ctx context.Context, hospitalID, resourceType string, req *dto.UpdateResourceRequest) wrapper.JSONResult
	CreateBooking(ctx context.Context, hospitalID string, req *dto.CreateBookingRequest) wrapper.JSONResult
}

type UseCase struct {
	Repo   repository.IRepository
	Config *config.SimulatorConfig
	Logger *logger.CanonicalLogger
}

func NewUseCase(uc UseCase) *UseCase {
	return &uc
}

// since converts a lastUpdate query value to unix micro. Empty means the
// client has seen nothing yet.
func since(lastUpdate string) (int64, error) {
	if lastUpdate == "" {
		return 0, nil
	}
	t, err := time.Parse(time.RFC3339Nano, lastUpdate)
	if err != nil {
		return 0, fmt.Errorf("invalid lastUpdate %q: expected RFC3339 timestamp", lastUpdate)
	}
	return t.UnixMicro(), nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// recommended picks the fast interval while data is moving.
func (uc *UseCase) recommended(hasChanges bool) int64 {
	if hasChanges {
		return uc.Config.MinInterval.Milliseconds()
	}
	return uc.Config.DefaultInterval.Milliseconds()
}

func (uc *UseCase) changes(ctx context.Context, hospitalID, lastUpdate string, kinds ...string) ([]models.Change, *wrapper.JSONResult) {
	from, err := since(lastUpdate)
	if err != nil {
		res := wrapper.ResponseFailed(http.StatusBadRequest, err.Error(), nil)
		return nil, &res
	}
	changes, err := uc.Repo.ChangedSince(ctx, hospitalID, from, kinds...)
	if err != nil {
		logger.AddToContext(ctx, zap.Error(err))
		res := wrapper.ResponseFailed(http.StatusInternalServerError, "failed to read change log", nil)
		return nil, &res
	}
	return changes, nil
}

func internalError(ctx context.Context, err error, message string) wrapper.JSONResult {
	logger.AddToContext(ctx, zap.Error(err))
	return wrapper.ResponseFailed(http.StatusInternalServerError, message, nil)
}

func (uc *UseCase) PollResources(ctx context.Context, hospitalID, lastUpdate string) wrapper.JSONResult {
	now := time.Now()
	changes, failed := uc.changes(ctx, hospitalID, lastUpdate, models.KindResource)
	if failed != nil {
		return *failed
	}

	resources, err := uc.Repo.ListResources(ctx, hospitalID)
	if err != nil {
		return internalError(ctx, err, "failed to list resources")
	}

	hasChanges := lastUpdate == "" || len(changes) > 0
	logger.AddToContext(ctx, zap.Bool("has_changes", hasChanges))
	return wrapper.ResponsePolling(http.StatusOK, dto.ResourcesResponse{
		HasChanges:       hasChanges,
		Resources:        resources,
		CurrentTimestamp: timestamp(now),
	}, uc.recommended(hasChanges))
}

func (uc *UseCase) PollBookings(ctx context.Context, hospitalID, lastUpdate, status string) wrapper.JSONResult {
	now := time.Now()
	changes, failed := uc.changes(ctx, hospitalID, lastUpdate, models.KindBooking)
	if failed != nil {
		return *failed
	}

	bookings, err := uc.Repo.ListBookings(ctx, hospitalID, status)
	if err != nil {
		return internalError(ctx, err, "failed to list bookings")
	}

	hasChanges := lastUpdate == "" || len(changes) > 0
	logger.AddToContext(ctx, zap.Bool("has_changes", hasChanges))
	return wrapper.ResponsePolling(http.StatusOK, dto.BookingsResponse{
		HasChanges:       hasChanges,
		Bookings:         bookings,
		CurrentTimestamp: timestamp(now),
	}, uc.recommended(hasChanges))
}

func (uc *UseCase) PollDashboard(ctx context.Context, hospitalID, lastUpdate string) wrapper.JSONResult {
	now := time.Now()
	changes, failed := uc.changes(ctx, hospitalID, lastUpdate)
	if failed != nil {
		return *failed
	}

	resources, err := uc.Repo.ListResources(ctx, hospitalID)
	if err != nil {
		return internalError(ctx, err, "failed to list resources")
	}
	pending, err := uc.Repo.CountBookings(ctx, hospitalID, models.BookingPending)
	if err != nil {
		return internalError(ctx, err, "failed to count bookings")
	}

	var totals dto.DashboardTotals
	for _, r := range resources {
		totals.Total += r.Total
		totals.Available += r.Available
	}

	hasChanges := lastUpdate == "" || len(changes) > 0
	return wrapper.ResponsePolling(http.StatusOK, dto.DashboardResponse{
		HasChanges:       hasChanges,
		Totals:           totals,
		PendingBookings:  pending,
		CurrentTimestamp: timestamp(now),
	}, uc.recommended(hasChanges))
}

// PollChanges returns only the entities changed since lastUpdate.
func (uc *UseCase) PollChanges(ctx context.Context, hospitalID, lastUpdate string) wrapper.JSONResult {
	now := time.Now()
	changes, failed := uc.changes(ctx, hospitalID, lastUpdate)
	if failed != nil {
		return *failed
	}

	var resourceIDs, bookingIDs []string
	seen := make(map[string]bool, len(changes))
	for _, ch := range changes {
		if seen[ch.EntityID] {
			continue
		}
		seen[ch.EntityID] = true
		switch ch.Kind {
		case models.KindResource:
			resourceIDs = append(resourceIDs, ch.EntityID)
		case models.KindBooking:
			bookingIDs = append(bookingIDs, ch.EntityID)
		}
	}

	resources, err := uc.Repo.ResourcesByID(ctx, resourceIDs)
	if err != nil {
		return internalError(ctx, err, "failed to load changed resources")
	}
	bookings, err := uc.Repo.BookingsByID(ctx, bookingIDs)
	if err != nil {
		return internalError(ctx, err, "failed to load changed bookings")
	}

	hasChanges := len(changes) > 0
	logger.AddToContext(ctx, zap.Int("change_count", len(changes)))
	return wrapper.ResponsePolling(http.StatusOK, dto.ChangesResponse{
		HasChanges:       hasChanges,
		Changes:          dto.ChangeSet{Resources: resources, Bookings: bookings},
		CurrentTimestamp: timestamp(now),
	}, uc.recommended(hasChanges))
}

func (uc *UseCase) PollingConfig(ctx context.Context, hospitalID string) wrapper.JSONResult {
	return wrapper.ResponseSuccess(http.StatusOK, dto.PollingConfigResponse{
		RecommendedInterval: uc.Config.DefaultInterval.Milliseconds(),
		MinInterval:         uc.Config.MinInterval.Milliseconds(),
		MaxInterval:         uc.Config.MaxInterval.Milliseconds(),
	})
}

func (uc *UseCase) Health(ctx context.Context) wrapper.JSONResult {
	return wrapper.ResponseSuccess(http.StatusOK, dto.HealthResponse{
		Status:    "healthy",
		Timestamp: timestamp(time.Now()),
	})
}

func (uc *UseCase) UpdateResource(ctx context.Context, hospitalID, resourceType string, req *dto.UpdateResourceRequest) wrapper.JSONResult {
	if *req.Available > *req.Total {
		return wrapper.ResponseFailed(http.StatusBadRequest, "available must not exceed total", nil)
	}

	res, err := uc.Repo.UpsertResource(ctx, hospitalID, resourceType, *req.Total, *req.Available)
	if err != nil {
		return internalError(ctx, err, "failed to update resource")
	}

	uc.publish(ctx, hospitalID, models.KindResource, res.UpdatedAt)
	return wrapper.ResponseSuccess(http.StatusOK, res)
}

func (uc *UseCase) CreateBooking(ctx context.Context, hospitalID string, req *dto.CreateBookingRequest) wrapper.JSONResult {
	booking := &models.Booking{
		HospitalID:   hospitalID,
		PatientName:  req.PatientName,
		ResourceType: req.ResourceType,
		Urgency:      req.Urgency,
	}
	if err := uc.Repo.CreateBooking(ctx, booking); err != nil {
		return internalError(ctx, err, "failed to create booking")
	}

	uc.publish(ctx, hospitalID, models.KindBooking, booking.CreatedAt)
	return wrapper.ResponseSuccess(http.StatusCreated, booking)
}

// publish failures are logged only; pollers still see the change on their
// next request.
func (uc *UseCase) publish(ctx context.Context, hospitalID, kind string, at time.Time) {
	if err := uc.Repo.PublishChange(ctx, hospitalID, kind, at); err != nil {
		uc.Logger.WithHospitalID(hospitalID).WithError(err).Warn("failed to publish change hint",
			logger.String(logger.FieldChangeKind, kind),
		)
		return
	}
	logger.AddToContext(ctx, zap.String(logger.FieldChangeKind, kind))
}
