package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository reads locations and services from PostgreSQL. The engine only
// ever reads this data; writes happen through external admin tooling.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a catalog repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		panic("catalog: db required")
	}
	return &Repository{db: db}
}

// ListLocations returns locations ordered by name. When activeOnly is set,
// inactive locations are excluded.
func (r *Repository) ListLocations(ctx context.Context, activeOnly bool) ([]Location, error) {
	query := `
		SELECT id, name, active, opening_time, closing_time, slot_minutes,
		       COALESCE(break_start, ''), COALESCE(break_end, '')
		FROM locations`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: list locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Active, &l.OpeningTime, &l.ClosingTime,
			&l.SlotMinutes, &l.BreakStart, &l.BreakEnd); err != nil {
			return nil, fmt.Errorf("catalog: scan location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list locations: %w", err)
	}
	return locations, nil
}

// GetLocation returns one location by id, or sql.ErrNoRows wrapped.
func (r *Repository) GetLocation(ctx context.Context, id int64) (*Location, error) {
	var l Location
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, active, opening_time, closing_time, slot_minutes,
		       COALESCE(break_start, ''), COALESCE(break_end, '')
		FROM locations WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Active, &l.OpeningTime, &l.ClosingTime,
		&l.SlotMinutes, &l.BreakStart, &l.BreakEnd)
	if err != nil {
		return nil, fmt.Errorf("catalog: get location %d: %w", id, err)
	}
	return &l, nil
}

// ListServices returns a location's services ordered by name.
func (r *Repository) ListServices(ctx context.Context, locationID int64, activeOnly bool) ([]Service, error) {
	query := `
		SELECT id, location_id, name, price_cents, duration_min, active
		FROM services WHERE location_id = $1`
	if activeOnly {
		query += ` AND active = true`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.LocationID, &s.Name, &s.PriceCents, &s.DurationMin, &s.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	return services, nil
}

// GetService returns one service by id, or sql.ErrNoRows wrapped.
func (r *Repository) GetService(ctx context.Context, id int64) (*Service, error) {
	var s Service
	err := r.db.QueryRowContext(ctx, `
		SELECT id, location_id, name, price_cents, duration_min, active
		FROM services WHERE id = $1`, id,
	).Scan(&s.ID, &s.LocationID, &s.Name, &s.PriceCents, &s.DurationMin, &s.Active)
	if err != nil {
		return nil, fmt.Errorf("catalog: get service %d: %w", id, err)
	}
	return &s, nil
}
