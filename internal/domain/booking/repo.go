package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sentinel errors shared by the repository and service layers.
var (
	// ErrNotFound is returned when no booking exists for the given id.
	ErrNotFound = errors.New("booking not found")
	// ErrSlotTaken is returned when an active booking already occupies the
	// requested (date, time) slot.
	ErrSlotTaken = errors.New("this time slot is already booked")
)

// ValidationError carries field-level messages for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "invalid booking data" }

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	// ListRange returns active bookings with start <= date <= end,
	// ordered by (date, time) ascending.
	ListRange(ctx context.Context, start, end string) ([]*Booking, error)
	// CountActiveAt counts pending or confirmed bookings at (date, time).
	CountActiveAt(ctx context.Context, date, timeSlot string) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Booking, error)
}
