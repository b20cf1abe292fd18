package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, service_id, booking_date, time_slot,
	client_name, client_email, client_phone, notes, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.ServiceID, &b.Date, &b.Time,
		&b.ClientName, &b.ClientEmail, &b.ClientPhone, &b.Notes, &b.Status,
		&b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) Create(ctx context.Context, b *Booking) error {
	b.ID = uuid.New()
	if b.Status == "" {
		b.Status = StatusPending
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, service_id, booking_date, time_slot,
			client_name, client_email, client_phone, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		b.ID, b.ServiceID, b.Date, b.Time,
		b.ClientName, b.ClientEmail, b.ClientPhone, b.Notes, b.Status)
	if err := row.Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		// The partial unique index on active (date, time) pairs turns a
		// lost check-then-act race into a unique violation.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return err
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Booking, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cols+` FROM bookings ORDER BY booking_date ASC, time_slot ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListRange(ctx context.Context, start, end string) ([]*Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cols+` FROM bookings
		WHERE booking_date >= $1 AND booking_date <= $2
		  AND status IN ($3, $4)
		ORDER BY booking_date ASC, time_slot ASC`,
		start, end, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) CountActiveAt(ctx context.Context, date, timeSlot string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE booking_date = $1 AND time_slot = $2 AND status IN ($3, $4)`,
		date, timeSlot, StatusPending, StatusConfirmed).Scan(&n)
	return n, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `
		UPDATE bookings SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+cols, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func collect(rows pgx.Rows) ([]*Booking, error) {
	var items []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
