package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationColumns() []string {
	return []string{"id", "name", "active", "opening_time", "closing_time", "slot_minutes", "break_start", "break_end"}
}

func TestListLocationsActiveOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(locationColumns()).
		AddRow(2, "Norte", true, "08:00", "18:00", 30, "", "").
		AddRow(1, "Sur", true, "09:00", "17:00", 30, "12:00", "13:00")
	mock.ExpectQuery(`SELECT id, name, active.*FROM locations WHERE active = true ORDER BY name ASC`).
		WillReturnRows(rows)

	repo := NewRepository(db)
	locations, err := repo.ListLocations(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "Norte", locations[0].Name)
	assert.False(t, locations[0].HasBreak())
	assert.True(t, locations[1].HasBreak())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLocationsIncludesInactive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(locationColumns()).
		AddRow(3, "Cerrada", false, "09:00", "17:00", 30, "", "")
	mock.ExpectQuery(`SELECT id, name, active.*FROM locations ORDER BY name ASC`).
		WillReturnRows(rows)

	repo := NewRepository(db)
	locations, err := repo.ListLocations(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.False(t, locations[0].Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLocationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, active.*FROM locations WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	repo := NewRepository(db)
	_, err = repo.GetLocation(context.Background(), 99)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListServices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "location_id", "name", "price_cents", "duration_min", "active"}).
		AddRow(10, 1, "Lavado Basico", 2000000, 30, true).
		AddRow(11, 1, "Lavado Premium", 4500000, 60, true)
	mock.ExpectQuery(`SELECT id, location_id, name, price_cents, duration_min, active.*FROM services WHERE location_id = \$1 AND active = true ORDER BY name ASC`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	repo := NewRepository(db)
	services, err := repo.ListServices(context.Background(), 1, true)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, int64(2000000), services[0].PriceCents)
	assert.Equal(t, 60, services[1].DurationMin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetService(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "location_id", "name", "price_cents", "duration_min", "active"}).
		AddRow(10, 1, "Lavado Basico", 2000000, 30, true)
	mock.ExpectQuery(`SELECT id, location_id, name, price_cents, duration_min, active.*FROM services WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(rows)

	repo := NewRepository(db)
	svc, err := repo.GetService(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Lavado Basico", svc.Name)
	assert.Equal(t, int64(1), svc.LocationID)
}
