package booking

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salon/salon/internal/platform/metrics"
)

type Service struct {
	bookings Repository
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{bookings: repo, now: time.Now}
}

// CreateInput is the booking form payload. Status and id are never accepted
// from the client.
type CreateInput struct {
	ServiceID   string `json:"service_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
	Notes       string `json:"notes,omitempty"`
}

func (in *CreateInput) validate() *ValidationError {
	fields := map[string]string{}
	if !ValidServiceID(in.ServiceID) {
		fields["service_id"] = "must be one of: bridal, evening, daily"
	}
	if strings.TrimSpace(in.Date) == "" {
		fields["date"] = "date is required"
	}
	if in.Time == "" {
		fields["time"] = "time is required"
	} else if !ValidSlot(in.Time) {
		fields["time"] = "must be an hourly slot between 09:00 and 18:00"
	}
	if len(strings.TrimSpace(in.ClientName)) < 2 {
		fields["client_name"] = "must be at least 2 characters"
	}
	if _, err := mail.ParseAddress(in.ClientEmail); err != nil {
		fields["client_email"] = "must be a valid email address"
	}
	if len(strings.TrimSpace(in.ClientPhone)) < 6 {
		fields["client_phone"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// IsAvailable reports whether the (date, time) slot has no active booking.
// Any store failure yields false so that a degraded store can never hand
// out a slot twice.
func (s *Service) IsAvailable(ctx context.Context, date, timeSlot string) (bool, error) {
	normalized, err := NormalizeDate(date)
	if err != nil {
		metrics.AvailabilityCheck("invalid")
		return false, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}
	n, err := s.bookings.CountActiveAt(ctx, normalized, timeSlot)
	if err != nil {
		metrics.AvailabilityCheck("error")
		return false, err
	}
	if n > 0 {
		metrics.AvailabilityCheck("occupied")
		return false, nil
	}
	metrics.AvailabilityCheck("free")
	return true, nil
}

// Create validates the payload, re-checks the slot, and inserts a new pending
// booking. The pre-insert check narrows the race window; the partial unique
// index in the store closes it, surfacing as the same ErrSlotTaken.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Booking, error) {
	if verr := in.validate(); verr != nil {
		return nil, verr
	}
	date, err := NormalizeDate(in.Date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}
	closed, err := ClosedDate(date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}
	if closed {
		return nil, &ValidationError{Fields: map[string]string{"date": "the salon is closed on this date"}}
	}
	if date < s.now().Format("2006-01-02") {
		return nil, &ValidationError{Fields: map[string]string{"date": "date is in the past"}}
	}

	n, err := s.bookings.CountActiveAt(ctx, date, in.Time)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		metrics.BookingConflict()
		return nil, ErrSlotTaken
	}

	b := &Booking{
		ServiceID:   in.ServiceID,
		Date:        date,
		Time:        in.Time,
		ClientName:  strings.TrimSpace(in.ClientName),
		ClientEmail: strings.TrimSpace(in.ClientEmail),
		ClientPhone: strings.TrimSpace(in.ClientPhone),
		Status:      StatusPending,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		b.Notes = &notes
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		if err == ErrSlotTaken {
			metrics.BookingConflict()
		}
		return nil, err
	}
	metrics.BookingCreated(b.ServiceID)
	return b, nil
}

func (s *Service) GetAll(ctx context.Context) ([]*Booking, error) {
	return s.bookings.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// GetInRange returns active bookings whose date falls within [start, end]
// inclusive. Both bounds are normalized first; the fixed-width YYYY-MM-DD
// form makes plain string comparison correct in the store.
func (s *Service) GetInRange(ctx context.Context, start, end string) ([]*Booking, error) {
	normStart, err := NormalizeDate(start)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"start": err.Error()}}
	}
	normEnd, err := NormalizeDate(end)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"end": err.Error()}}
	}
	return s.bookings.ListRange(ctx, normStart, normEnd)
}

// SetStatus updates a booking's lifecycle status. Transitions are not
// constrained to a state machine; any known status may be set.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Booking, error) {
	if !ValidStatus(status) {
		return nil, &ValidationError{Fields: map[string]string{"status": "must be one of: pending, confirmed, cancelled"}}
	}
	return s.bookings.UpdateStatus(ctx, id, status)
}

// DaySlots builds the free/occupied partition for one date in a single store
// round trip, replacing the client's per-slot polling.
func (s *Service) DaySlots(ctx context.Context, date string) (*DaySchedule, error) {
	normalized, err := NormalizeDate(date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}
	closed, err := ClosedDate(normalized)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": err.Error()}}
	}
	sched := &DaySchedule{Date: normalized, Closed: closed}
	if closed {
		for _, t := range TimeSlots() {
			sched.Slots = append(sched.Slots, SlotStatus{Time: t, Available: false})
		}
		return sched, nil
	}
	active, err := s.bookings.ListRange(ctx, normalized, normalized)
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]bool, len(active))
	for _, b := range active {
		occupied[b.Time] = true
	}
	for _, t := range TimeSlots() {
		sched.Slots = append(sched.Slots, SlotStatus{Time: t, Available: !occupied[t]})
	}
	return sched, nil
}
