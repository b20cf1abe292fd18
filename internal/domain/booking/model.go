package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Booking statuses. Pending and confirmed bookings occupy their slot;
// cancelled bookings free it for rebooking.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCancelled: true,
}

// ValidStatus reports whether s is one of the booking statuses.
func ValidStatus(s string) bool { return validStatuses[s] }

// ServiceOption describes one bookable salon service.
type ServiceOption struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
}

// ServiceOptions is the fixed service catalogue.
var ServiceOptions = []ServiceOption{
	{ID: "bridal", Name: "Bridal makeup", DurationMinutes: 90},
	{ID: "evening", Name: "Evening makeup", DurationMinutes: 60},
	{ID: "daily", Name: "Daily makeup", DurationMinutes: 45},
}

var validServiceIDs = map[string]bool{"bridal": true, "evening": true, "daily": true}

// ValidServiceID reports whether id is one of the service enumeration.
func ValidServiceID(id string) bool { return validServiceIDs[id] }

// Booking maps to the bookings table. Date is kept as a plain YYYY-MM-DD
// string end to end so comparisons never shift across timezones.
type Booking struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ServiceID   string    `db:"service_id" json:"service_id"`
	Date        string    `db:"booking_date" json:"date"`
	Time        string    `db:"time_slot" json:"time"`
	ClientName  string    `db:"client_name" json:"client_name"`
	ClientEmail string    `db:"client_email" json:"client_email"`
	ClientPhone string    `db:"client_phone" json:"client_phone"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Active reports whether the booking counts toward slot occupancy.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

var ymdRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// normalizeLayouts are tried in order for inputs that are neither plain
// YYYY-MM-DD strings nor ISO timestamps.
var normalizeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

// NormalizeDate converts any reasonable date representation to the canonical
// YYYY-MM-DD form. Plain YYYY-MM-DD strings pass through unchanged, full ISO
// timestamps have their date part extracted (time-of-day and timezone are
// dropped, never applied), and other parseable forms are reformatted. The
// operation is idempotent.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("date is empty")
	}
	if ymdRe.MatchString(s) {
		return s, nil
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		if head := s[:i]; ymdRe.MatchString(head) {
			return head, nil
		}
	}
	for _, layout := range normalizeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date format: %q", s)
}

// TimeSlots returns the fixed daily schedule of hourly slot labels,
// 09:00 through 18:00.
func TimeSlots() []string {
	slots := make([]string, 0, 10)
	for hour := 9; hour <= 18; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots
}

// ValidSlot reports whether t is one of the daily slot labels.
func ValidSlot(t string) bool {
	for _, s := range TimeSlots() {
		if s == t {
			return true
		}
	}
	return false
}

// ClosedDate reports whether the salon is closed on the given normalized
// date: every Sunday and December 25.
func ClosedDate(date string) (bool, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false, fmt.Errorf("parse date %q: %w", date, err)
	}
	if d.Weekday() == time.Sunday {
		return true, nil
	}
	if d.Month() == time.December && d.Day() == 25 {
		return true, nil
	}
	return false, nil
}

// SlotStatus is one entry of a day's free/occupied partition.
type SlotStatus struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DaySchedule is the batched availability view for a single date.
type DaySchedule struct {
	Date   string       `json:"date"`
	Closed bool         `json:"closed"`
	Slots  []SlotStatus `json:"slots"`
}
