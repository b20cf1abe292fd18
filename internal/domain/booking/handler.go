package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/salon/salon/internal/platform/export"
	"github.com/salon/salon/pkg/apierror"
)

// Notifier sends the confirmation message after a booking is confirmed.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, b *Booking) error
}

type Handler struct {
	svc      *Service
	notifier Notifier
	logger   zerolog.Logger
}

func NewHandler(svc *Service, notifier Notifier, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, notifier: notifier, logger: logger}
}

// RegisterRoutes mounts public endpoints on api and admin-only endpoints on
// admin (which carries the auth middleware).
func (h *Handler) RegisterRoutes(api, admin *echo.Group) {
	api.GET("/bookings/availability", h.CheckAvailability)
	api.GET("/bookings/slots", h.DaySlots)
	api.POST("/bookings", h.CreateBooking)

	admin.GET("/bookings", h.ListBookings)
	admin.GET("/bookings/range", h.ListBookingsInRange)
	admin.GET("/bookings/export", h.ExportBookings)
	admin.GET("/bookings/:id", h.GetBooking)
	admin.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
}

// availabilityResponse mirrors the original availability contract.
type availabilityResponse struct {
	Available bool `json:"available"`
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	date := c.QueryParam("date")
	timeSlot := c.QueryParam("time")
	if date == "" || timeSlot == "" {
		return apierror.BadRequest("date and time parameters are required", nil)
	}
	available, err := h.svc.IsAvailable(c.Request().Context(), date, timeSlot)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return apierror.BadRequest("invalid date", verr.Fields)
		}
		return apierror.Internal("failed to check availability")
	}
	return c.JSON(http.StatusOK, availabilityResponse{Available: available})
}

func (h *Handler) DaySlots(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return apierror.BadRequest("date parameter is required", nil)
	}
	sched, err := h.svc.DaySlots(c.Request().Context(), date)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return apierror.BadRequest("invalid date", verr.Fields)
		}
		return apierror.Internal("failed to load day schedule")
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *Handler) CreateBooking(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apierror.BadRequest("invalid booking data", nil)
	}
	b, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return apierror.BadRequest("invalid booking data", verr.Fields)
		case errors.Is(err, ErrSlotTaken):
			return apierror.Conflict("This time slot is already booked.")
		default:
			return apierror.Internal("failed to create booking")
		}
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBookings(c echo.Context) error {
	items, err := h.svc.GetAll(c.Request().Context())
	if err != nil {
		return apierror.Internal("failed to fetch bookings")
	}
	if items == nil {
		items = []*Booking{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListBookingsInRange(c echo.Context) error {
	start := c.QueryParam("start")
	end := c.QueryParam("end")
	if start == "" || end == "" {
		return apierror.BadRequest("start and end date parameters are required", nil)
	}
	items, err := h.svc.GetInRange(c.Request().Context(), start, end)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return apierror.BadRequest("invalid date range", verr.Fields)
		}
		return apierror.Internal("failed to fetch bookings in date range")
	}
	if items == nil {
		items = []*Booking{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetBooking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.BadRequest("invalid booking id", nil)
	}
	b, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apierror.NotFound("Booking not found")
		}
		return apierror.Internal("failed to fetch booking")
	}
	return c.JSON(http.StatusOK, b)
}

type statusInput struct {
	Status string `json:"status"`
}

// statusResponse wraps the updated booking and, on transitions to confirmed,
// whether the confirmation message went out. The notification is not atomic
// with the status write; a send failure is surfaced here, never rolled back.
type statusResponse struct {
	*Booking
	NotificationSent *bool `json:"notification_sent,omitempty"`
}

func (h *Handler) UpdateBookingStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierror.BadRequest("invalid booking id", nil)
	}
	var in statusInput
	if err := c.Bind(&in); err != nil {
		return apierror.BadRequest("invalid status payload", nil)
	}
	b, err := h.svc.SetStatus(c.Request().Context(), id, in.Status)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return apierror.BadRequest("Invalid status", verr.Fields)
		case errors.Is(err, ErrNotFound):
			return apierror.NotFound("Booking not found")
		default:
			return apierror.Internal("failed to update booking")
		}
	}

	resp := statusResponse{Booking: b}
	if in.Status == StatusConfirmed && h.notifier != nil {
		sent := true
		if err := h.notifier.SendBookingConfirmation(c.Request().Context(), b); err != nil {
			sent = false
			h.logger.Warn().Err(err).
				Str("booking_id", b.ID.String()).
				Str("client_email", b.ClientEmail).
				Msg("confirmation email failed")
		}
		resp.NotificationSent = &sent
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ExportBookings(c echo.Context) error {
	start := c.QueryParam("start")
	end := c.QueryParam("end")
	if start == "" || end == "" {
		return apierror.BadRequest("start and end date parameters are required", nil)
	}
	items, err := h.svc.GetInRange(c.Request().Context(), start, end)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return apierror.BadRequest("invalid date range", verr.Fields)
		}
		return apierror.Internal("failed to fetch bookings for export")
	}

	rows := make([][]interface{}, 0, len(items))
	for _, b := range items {
		notes := ""
		if b.Notes != nil {
			notes = *b.Notes
		}
		rows = append(rows, []interface{}{
			b.Date, b.Time, b.ServiceID, b.ClientName, b.ClientEmail,
			b.ClientPhone, b.Status, notes, b.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	f, err := export.Workbook("Bookings",
		[]string{"Date", "Time", "Service", "Client", "Email", "Phone", "Status", "Notes", "Created"},
		rows)
	if err != nil {
		return apierror.Internal("failed to build export")
	}

	filename := fmt.Sprintf("bookings_%s_%s.xlsx", start, end)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}
