package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventGuard remembers processed event ids so redeliveries can be acked
// without reprocessing.
type EventGuard struct {
	rdb   redis.Cmdable
	ttl   time.Duration
	scope string
}

func NewEventGuard(rdb redis.Cmdable, ttl time.Duration, scope string) (*EventGuard, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &EventGuard{rdb: rdb, ttl: ttl, scope: scope}, nil
}

func (g *EventGuard) key(eventID string) string { return "guard:" + g.scope + ":" + eventID }

// CheckAndMark reports whether eventID was already marked, marking it if not.
func (g *EventGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.rdb.SetNX(ctx, g.key(eventID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set guard key: %w", err)
	}
	return !set, nil
}

// Delete forgets eventID so a failed delivery can be retried.
func (g *EventGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.rdb.Del(ctx, g.key(eventID)).Err()
}
