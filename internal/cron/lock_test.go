package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return s, rdb
}

func TestRedisLock_Exclusive(t *testing.T) {
	s, rdb := newRedis(t)
	ctx := context.Background()

	a, err := NewRedisLock(rdb, "credlio:deductiond:lock", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	b, _ := NewRedisLock(rdb, "credlio:deductiond:lock", time.Minute)

	if ok, err := a.Acquire(ctx); err != nil || !ok {
		t.Fatalf("a.Acquire = %v, %v", ok, err)
	}
	if ok, err := b.Acquire(ctx); err != nil || ok {
		t.Fatalf("b.Acquire = %v, %v; want false", ok, err)
	}
	if ttl := s.TTL("credlio:deductiond:lock"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	// b never owned it; releasing must not free a's lock
	if err := b.Release(ctx); err != nil {
		t.Fatalf("b.Release: %v", err)
	}
	if !s.Exists("credlio:deductiond:lock") {
		t.Fatal("lock deleted by non-owner")
	}

	if err := a.Release(ctx); err != nil {
		t.Fatalf("a.Release: %v", err)
	}
	if ok, err := b.Acquire(ctx); err != nil || !ok {
		t.Fatalf("b.Acquire after release = %v, %v", ok, err)
	}
}

func TestRedisLock_ExpiredAndTakenOver(t *testing.T) {
	s, rdb := newRedis(t)
	ctx := context.Background()
	a, _ := NewRedisLock(rdb, "k", time.Minute)
	b, _ := NewRedisLock(rdb, "k", time.Minute)

	if ok, _ := a.Acquire(ctx); !ok {
		t.Fatal("a should acquire")
	}
	s.FastForward(2 * time.Minute)
	if ok, _ := b.Acquire(ctx); !ok {
		t.Fatal("b should acquire after expiry")
	}
	if err := a.Release(ctx); err != nil {
		t.Fatalf("a.Release: %v", err)
	}
	if !s.Exists("k") {
		t.Fatal("stale owner released the new owner's lock")
	}
}

func TestNewRedisLock_Validation(t *testing.T) {
	_, rdb := newRedis(t)
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("nil client should fail")
	}
	if _, err := NewRedisLock(rdb, "", 0); err == nil {
		t.Fatal("empty key should fail")
	}
	l, err := NewRedisLock(rdb, "k", 0)
	if err != nil || l.ttl != defaultLockTTL {
		t.Fatalf("default ttl not applied: %v %v", l, err)
	}
}
