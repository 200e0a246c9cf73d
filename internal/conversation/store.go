package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const stateKeyPrefix = "conversation_state:"

// Store keeps one ConversationState per customer phone in Redis. A zero TTL
// keeps states forever; a silent customer simply stays parked at their last
// step.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewStore creates a Redis-backed conversation state store.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &Store{
		redis:  redisClient,
		ttl:    ttl,
		tracer: otel.Tracer("booking.internal.conversation.store"),
	}
}

// Get loads the customer's state, or nil when the dialogue has not started.
func (s *Store) Get(ctx context.Context, phone string) (*State, error) {
	if phone == "" {
		return nil, errors.New("conversation: phone required")
	}

	ctx, span := s.tracer.Start(ctx, "conversation.state.get")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("conversation: decode state: %w", err)
	}
	return &state, nil
}

// Save persists the customer's state, refreshing the TTL when one is set.
func (s *Store) Save(ctx context.Context, phone string, state *State) error {
	if phone == "" {
		return errors.New("conversation: phone required")
	}
	if state == nil {
		return errors.New("conversation: state required")
	}

	ctx, span := s.tracer.Start(ctx, "conversation.state.save")
	defer span.End()

	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("conversation: encode state: %w", err)
	}
	if err := s.redis.Set(ctx, stateKey(phone), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("conversation: save state: %w", err)
	}
	return nil
}

// Reset removes the customer's state so the next message starts a fresh
// dialogue.
func (s *Store) Reset(ctx context.Context, phone string) error {
	if phone == "" {
		return errors.New("conversation: phone required")
	}

	ctx, span := s.tracer.Start(ctx, "conversation.state.reset")
	defer span.End()

	if err := s.redis.Del(ctx, stateKey(phone)).Err(); err != nil {
		return fmt.Errorf("conversation: reset state: %w", err)
	}
	return nil
}

func stateKey(phone string) string {
	return stateKeyPrefix + phone
}
