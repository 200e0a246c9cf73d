package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no booking matches a lookup.
var ErrNotFound = errors.New("bookings: not found")

// Repository persists bookings in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a booking repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("bookings: db required")
	}
	return &Repository{db: db}
}

const bookingColumns = `id, location_id, service_id, customer_phone, scheduled_at,
	status, COALESCE(payment_reference, ''), COALESCE(payment_status, ''), created_at`

// Create inserts a booking and returns it with its generated id.
func (r *Repository) Create(ctx context.Context, b Booking) (*Booking, error) {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO bookings (location_id, service_id, customer_phone, scheduled_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		b.LocationID, b.ServiceID, b.CustomerPhone, b.ScheduledAt, string(b.Status), now,
	).Scan(&b.ID)
	if err != nil {
		return nil, fmt.Errorf("bookings: create: %w", err)
	}
	b.CreatedAt = now
	return &b, nil
}

// GetByID loads one booking.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

// FindByReferenceOrID resolves a booking by its stored payment reference,
// falling back to a direct id match when id > 0. Returns ErrNotFound when
// neither matches.
func (r *Repository) FindByReferenceOrID(ctx context.Context, reference string, id int64) (*Booking, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE (payment_reference = $1 AND $1 <> '') OR ($2 > 0 AND id = $2)
		ORDER BY (payment_reference = $1) DESC
		LIMIT 1`, reference, id)
	return scanBooking(row)
}

// SetPaymentLink stores the gateway reference and marks the payment pending.
func (r *Repository) SetPaymentLink(ctx context.Context, id int64, reference, paymentStatus string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings SET payment_reference = $2, payment_status = $3 WHERE id = $1`,
		id, reference, paymentStatus)
	if err != nil {
		return fmt.Errorf("bookings: set payment link: %w", err)
	}
	return requireRow(res)
}

// SetPaymentStatus records the raw gateway status string.
func (r *Repository) SetPaymentStatus(ctx context.Context, id int64, raw string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = $2 WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("bookings: set payment status: %w", err)
	}
	return requireRow(res)
}

// UpdateStatus transitions a booking and returns the status it had before.
// The read and write share a transaction so concurrent transitions serialize
// on the row.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) (Status, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("bookings: update status: %w", err)
	}
	defer tx.Rollback()

	var previous string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("bookings: update status: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $2 WHERE id = $1`, id, string(status)); err != nil {
		return "", fmt.Errorf("bookings: update status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("bookings: update status: %w", err)
	}
	return Status(previous), nil
}

// ListIntervalsForDate returns the start time and service duration of every
// non-cancelled booking at the location on the given "YYYY-MM-DD" date, for
// slot computation.
func (r *Repository) ListIntervalsForDate(ctx context.Context, locationID int64, date string) ([]ScheduledInterval, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(b.scheduled_at, 'HH24:MI'), s.duration_min
		FROM bookings b
		JOIN services s ON s.id = b.service_id
		WHERE b.location_id = $1
		  AND b.scheduled_at >= $2::date
		  AND b.scheduled_at < $2::date + interval '1 day'
		  AND b.status <> 'CANCELLED'
		ORDER BY b.scheduled_at ASC`, locationID, date)
	if err != nil {
		return nil, fmt.Errorf("bookings: list intervals: %w", err)
	}
	defer rows.Close()

	var intervals []ScheduledInterval
	for rows.Next() {
		var iv ScheduledInterval
		if err := rows.Scan(&iv.StartTime, &iv.DurationMin); err != nil {
			return nil, fmt.Errorf("bookings: scan interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list intervals: %w", err)
	}
	return intervals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var status string
	err := row.Scan(&b.ID, &b.LocationID, &b.ServiceID, &b.CustomerPhone, &b.ScheduledAt,
		&status, &b.PaymentReference, &b.PaymentStatus, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: scan: %w", err)
	}
	b.Status = Status(status)
	return &b, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bookings: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
