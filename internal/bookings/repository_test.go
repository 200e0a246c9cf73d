package bookings

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func bookingRows(b Booking) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "location_id", "service_id", "customer_phone", "scheduled_at",
		"status", "payment_reference", "payment_status", "created_at",
	}).AddRow(b.ID, b.LocationID, b.ServiceID, b.CustomerPhone, b.ScheduledAt,
		string(b.Status), b.PaymentReference, b.PaymentStatus, b.CreatedAt)
}

func TestCreateReturnsGeneratedID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(int64(1), int64(2), "573001234567", sqlmock.AnyArg(), "PENDING_PAYMENT", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	created, err := repo.Create(context.Background(), Booking{
		LocationID:    1,
		ServiceID:     2,
		CustomerPhone: "573001234567",
		ScheduledAt:   time.Date(2025, 12, 25, 9, 30, 0, 0, time.UTC),
		Status:        StatusPendingPayment,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByReferenceOrID(t *testing.T) {
	repo, mock := newMockRepo(t)

	want := Booking{
		ID: 7, LocationID: 1, ServiceID: 3, CustomerPhone: "573001234567",
		ScheduledAt: time.Date(2025, 12, 25, 9, 0, 0, 0, time.UTC),
		Status:      StatusPendingPayment, PaymentReference: "BOOKING_7_1735000000",
		CreatedAt: time.Now().UTC(),
	}
	mock.ExpectQuery("SELECT .+ FROM bookings").
		WithArgs("BOOKING_7_1735000000", int64(7)).
		WillReturnRows(bookingRows(want))

	got, err := repo.FindByReferenceOrID(context.Background(), "BOOKING_7_1735000000", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, StatusPendingPayment, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPaymentLinkMissingBooking(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE bookings SET payment_reference").
		WithArgs(int64(5), "BOOKING_5_1", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPaymentLink(context.Background(), 5, "BOOKING_5_1", "PENDING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusReturnsPrevious(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM bookings WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("PENDING_PAYMENT"))
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(int64(7), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	previous, err := repo.UpdateStatus(context.Background(), 7, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, previous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingBooking(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM bookings").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), 404, StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListIntervalsForDateExcludesCancelled(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT to_char").
		WithArgs(int64(1), "2025-12-25").
		WillReturnRows(sqlmock.NewRows([]string{"to_char", "duration_min"}).
			AddRow("09:00", 30).
			AddRow("10:30", 60))

	intervals, err := repo.ListIntervalsForDate(context.Background(), 1, "2025-12-25")
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, ScheduledInterval{StartTime: "09:00", DurationMin: 30}, intervals[0])
	assert.Equal(t, ScheduledInterval{StartTime: "10:30", DurationMin: 60}, intervals[1])
}
