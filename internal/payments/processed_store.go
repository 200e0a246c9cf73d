package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProcessedStore records payment events that were already handled, so a
// redelivered webhook never double-applies.
type ProcessedStore struct {
	db *sql.DB
}

func NewProcessedStore(db *sql.DB) *ProcessedStore {
	if db == nil {
		panic("payments: db required")
	}
	return &ProcessedStore{db: db}
}

// AlreadyProcessed checks whether this provider event id was seen before.
func (s *ProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_payment_events WHERE provider = $1 AND event_id = $2`,
		provider, eventID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("payments: check processed: %w", err)
	}
	return true, nil
}

// MarkProcessed claims an event id for the provider. Exactly one concurrent
// caller gets true; everyone else sees the conflict and gets false.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_payment_events (provider, event_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		provider, eventID)
	if err != nil {
		return false, fmt.Errorf("payments: mark processed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payments: mark processed: %w", err)
	}
	return affected > 0, nil
}
