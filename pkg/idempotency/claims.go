// Package idempotency claims event ids in redis so a redelivered event is
// applied once per consumer.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/visadesk-backend/pkg/redis"
)

// Claims scopes event claims to one consumer. Keys follow
// `vd:idempotency:evt:<consumer>:<event_id>`.
type Claims struct {
	store    redis.IdempotencyStore
	ttl      time.Duration
	consumer string
}

func NewClaims(store redis.IdempotencyStore, ttl time.Duration, consumer string) (*Claims, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, errors.New("consumer name is required")
	}
	return &Claims{store: store, ttl: ttl, consumer: consumer}, nil
}

// Claim reports whether this caller now owns eventID. False means an earlier
// delivery already claimed it.
func (c *Claims) Claim(ctx context.Context, eventID string) (bool, error) {
	key, err := c.key(eventID)
	if err != nil {
		return false, err
	}
	claimed, err := c.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s event: %w", c.consumer, err)
	}
	return claimed, nil
}

// Release drops a claim so the next redelivery is processed again.
func (c *Claims) Release(ctx context.Context, eventID string) error {
	key, err := c.key(eventID)
	if err != nil {
		return err
	}
	return c.store.Del(ctx, key)
}

func (c *Claims) key(eventID string) (string, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return "", errors.New("event id is required")
	}
	return c.store.IdempotencyKey("evt:"+c.consumer, eventID), nil
}
