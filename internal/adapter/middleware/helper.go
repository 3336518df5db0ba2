package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"credlio-backend/pkg/id"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const replayKeyPrefix = "credlio:idemp:"

// storedResponse is what the replay store keeps per request id. Pending is
// set while the first request is still being served.
type storedResponse struct {
	Pending    bool      `json:"pending"`
	Status     int       `json:"status"`
	Body       []byte    `json:"body,omitempty"`
	BodyDigest string    `json:"body_digest"`
	RequestAt  time.Time `json:"request_at"`
	StoredAt   time.Time `json:"stored_at"`
}

// replayStore persists responses keyed by caller and request id.
type replayStore struct {
	rdb        redis.Cmdable
	pendingTTL time.Duration
	ttl        time.Duration
}

func (s replayStore) reserve(ctx context.Context, key string, r storedResponse) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("encode pending response: %w", err)
	}
	return s.rdb.SetNX(ctx, key, payload, s.pendingTTL).Result()
}

func (s replayStore) load(ctx context.Context, key string) (storedResponse, error) {
	var r storedResponse
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("decode stored response: %w", err)
	}
	return r, nil
}

func (s replayStore) commit(ctx context.Context, key string, r storedResponse) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// replayKey scopes a request id to the caller and the concrete URL path, so
// the same id on two different loans never collides.
func replayKey(method, path, userID, requestID string) string {
	return replayKeyPrefix + strings.ToLower(method) + ":" + path + ":" + userID + ":" + requestID
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// validRequestID accepts a lowercase RFC 4122 uuid or a 32-char lowercase hex id.
func validRequestID(raw string) bool {
	if id.IsID32(raw) {
		return true
	}
	if len(raw) != 36 || raw != strings.ToLower(raw) {
		return false
	}
	u, err := uuid.Parse(raw)
	return err == nil && u.Variant() == uuid.RFC4122
}

// parseRequestAt reads epoch seconds, epoch milliseconds or an RFC 3339
// timestamp that carries a zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch seconds, epoch millis or RFC3339 with a zone")
}
