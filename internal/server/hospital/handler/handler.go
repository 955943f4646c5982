package handler

import (
	"github.com/Alwanly/hospital-polling/internal/config"
	"github.com/Alwanly/hospital-polling/internal/server/hospital/dto"
	"github.com/Alwanly/hospital-polling/internal/server/hospital/repository"
	"github.com/Alwanly/hospital-polling/internal/server/hospital/usecase"
	"github.com/Alwanly/hospital-polling/pkg/deps"
	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/middleware"
	"github.com/Alwanly/hospital-polling/pkg/validator"
	"github.com/Alwanly/hospital-polling/pkg/wrapper"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	Logger  *logger.CanonicalLogger
	UseCase usecase.UseCaseInterface
	Config  *config.SimulatorConfig
}

func NewHandler(d deps.App, cfg *config.SimulatorConfig) *Handler {

	repo := repository.NewRepository(d.Database, d.Pub)

	uc := usecase.NewUseCase(usecase.UseCase{
		Repo:   repo,
		Config: cfg,
		Logger: d.Logger,
	})

	h := &Handler{
		Logger:  d.Logger,
		UseCase: uc,
		Config:  cfg,
	}

	// Health check endpoint (no auth required)
	d.Fiber.Get("/polling/health", h.health)

	tokenAuth := middleware.BearerTokenAuth(cfg.APIToken, d.Logger)

	hospital := d.Fiber.Group("/hospitals/:hospitalId")
	polling := hospital.Group("/polling", tokenAuth)
	polling.Get("/resources", h.pollResources)
	polling.Get("/bookings", h.pollBookings)
	polling.Get("/dashboard", h.pollDashboard)
	polling.Get("/changes", h.pollChanges)
	polling.Get("/config", h.pollingConfig)

	// Staff mutation endpoints
	hospital.Put("/resources/:resourceType", d.Middleware.StaffAuth(), h.updateResource)
	hospital.Post("/bookings", d.Middleware.StaffAuth(), h.createBooking)

	return h
}

func hospitalID(c *fiber.Ctx) string {
	id := c.Params("hospitalId")
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldHospitalID, id))
	return id
}

func respond(c *fiber.Ctx, res wrapper.JSONResult) error {
	return c.Status(res.Code).JSON(res)
}

// pollResources godoc
// @Summary      Poll resource availability
// @Description  Resource inventory of a hospital with a change flag relative to lastUpdate
// @Tags         polling
// @Produce      json
// @Param        hospitalId path string true "Hospital ID"
// @Param        lastUpdate query string false "RFC3339 timestamp of the previous response"
// @Success      200 {object} wrapper.JSONResult{data=dto.ResourcesResponse}
// @Failure      400 {object} wrapper.JSONResult "Invalid lastUpdate"
// @Failure      401 {object} wrapper.JSONResult "Missing or invalid bearer token"
// @Router       /hospitals/{hospitalId}/polling/resources [get]
// @Security     ApiKeyAuth
func (h *Handler) pollResources(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "poll_resources"))
	return respond(c, h.UseCase.PollResources(c.UserContext(), hospitalID(c), c.Query("lastUpdate")))
}

// pollBookings godoc
// @Summary      Poll bookings
// @Description  Bookings of a hospital, optionally filtered by status
// @Tags         polling
// @Produce      json
// @Param        hospitalId path string true "Hospital ID"
// @Param        lastUpdate query string false "RFC3339 timestamp of the previous response"
// @Param        status query string false "Booking status filter"
// @Success      200 {object} wrapper.JSONResult{data=dto.BookingsResponse}
// @Failure      400 {object} wrapper.JSONResult "Invalid lastUpdate"
// @Failure      401 {object} wrapper.JSONResult "Missing or invalid bearer token"
// @Router       /hospitals/{hospitalId}/polling/bookings [get]
// @Security     ApiKeyAuth
func (h *Handler) pollBookings(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "poll_bookings"))
	return respond(c, h.UseCase.PollBookings(c.UserContext(), hospitalID(c), c.Query("lastUpdate"), c.Query("status")))
}

// pollDashboard godoc
// @Summary      Poll dashboard summary
// @Tags         polling
// @Produce      json
// @Param        hospitalId path string true "Hospital ID"
// @Param        lastUpdate query string false "RFC3339 timestamp of the previous response"
// @Success      200 {object} wrapper.JSONResult{data=dto.DashboardResponse}
// @Router       /hospitals/{hospitalId}/polling/dashboard [get]
// @Security     ApiKeyAuth
func (h *Handler) pollDashboard(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "poll_dashboard"))
	return respond(c, h.UseCase.PollDashboard(c.UserContext(), hospitalID(c), c.Query("lastUpdate")))
}

// pollChanges godoc
// @Summary      Poll the change feed
// @Description  Resources and bookings changed since lastUpdate
// @Tags         polling
// @Produce      json
// @Param        hospitalId path string true "Hospital ID"
// @Param        lastUpdate query string false "RFC3339 timestamp of the previous response"
// @Success      200 {object} wrapper.JSONResult{data=dto.ChangesResponse}
// @Router       /hospitals/{hospitalId}/polling/changes [get]
// @Security     ApiKeyAuth
func (h *Handler) pollChanges(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "poll_changes"))
	return respond(c, h.UseCase.PollChanges(c.UserContext(), hospitalID(c), c.Query("lastUpdate")))
}

// pollingConfig godoc
// @Summary      Polling interval configuration
// @Tags         polling
// @Produce      json
// @Param        hospitalId path string true "Hospital ID"
// @Success      200 {object} wrapper.JSONResult{data=dto.PollingConfigResponse}
// @Router       /hospitals/{hospitalId}/polling/config [get]
// @Security     ApiKeyAuth
func (h *Handler) pollingConfig(c *fiber.Ctx) error {
	return respond(c, h.UseCase.PollingConfig(c.UserContext(), hospitalID(c)))
}

// health godoc
// @Summary     Health check
// @Description Get simulator health status (unauthenticated)
// @Tags        health
// @Produce     json
// @Success     200 {object} wrapper.JSONResult{data=dto.HealthResponse}
// @Router      /polling/health [get]
func (h *Handler) health(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "health_check"))
	return respond(c, h.UseCase.Health(c.UserContext()))
}

// updateResource godoc
// @Summary      Set resource capacity
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        hospitalId path string true "Hospital ID"
// @Param        resourceType path string true "Resource type"
// @Param        request body dto.UpdateResourceRequest true "Capacity"
// @Success      200 {object} wrapper.JSONResult{data=models.Resource}
// @Failure      400 {object} wrapper.JSONResult "Invalid request body or validation error"
// @Router       /hospitals/{hospitalId}/resources/{resourceType} [put]
// @Security     BasicAuth
func (h *Handler) updateResource(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "update_resource"))

	req := new(dto.UpdateResourceRequest)
	if err := c.BodyParser(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return respond(c, wrapper.ResponseFailed(fiber.StatusBadRequest, "invalid request body", nil))
	}

	if err := validator.ValidateStruct(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return respond(c, wrapper.ResponseFailed(fiber.StatusBadRequest, "validation failed", validator.TranslateError(err)))
	}

	return respond(c, h.UseCase.UpdateResource(c.UserContext(), hospitalID(c), c.Params("resourceType"), req))
}

// createBooking godoc
// @Summary      Create a booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        hospitalId path string true "Hospital ID"
// @Param        request body dto.CreateBookingRequest true "Booking"
// @Success      201 {object} wrapper.JSONResult{data=models.Booking}
// @Failure      400 {object} wrapper.JSONResult "Invalid request body or validation error"
// @Router       /hospitals/{hospitalId}/bookings [post]
// @Security     BasicAuth
func (h *Handler) createBooking(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "create_booking"))

	req := new(dto.CreateBookingRequest)
	if err := c.BodyParser(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return respond(c, wrapper.ResponseFailed(fiber.StatusBadRequest, "invalid request body", nil))
	}

	if err := validator.ValidateStruct(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return respond(c, wrapper.ResponseFailed(fiber.StatusBadRequest, "validation failed", validator.TranslateError(err)))
	}

	return respond(c, h.UseCase.CreateBooking(c.UserContext(), hospitalID(c), req))
}
