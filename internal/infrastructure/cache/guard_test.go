package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestEventGuard_CheckAndMark(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	g, err := NewEventGuard(rdb, time.Hour, "gateway")
	if err != nil {
		t.Fatalf("NewEventGuard: %v", err)
	}
	ctx := context.Background()

	seen, err := g.CheckAndMark(ctx, "evt-1")
	if err != nil || seen {
		t.Fatalf("first delivery: seen=%v err=%v", seen, err)
	}
	seen, err = g.CheckAndMark(ctx, "evt-1")
	if err != nil || !seen {
		t.Fatalf("redelivery: seen=%v err=%v", seen, err)
	}
	if ttl := s.TTL("guard:gateway:evt-1"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	if err := g.Delete(ctx, "evt-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	seen, err = g.CheckAndMark(ctx, "evt-1")
	if err != nil || seen {
		t.Fatalf("after delete: seen=%v err=%v", seen, err)
	}
}

func TestEventGuard_Validation(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if _, err := NewEventGuard(nil, time.Hour, "x"); err == nil {
		t.Fatal("nil client should fail")
	}
	if _, err := NewEventGuard(rdb, -time.Second, "x"); err == nil {
		t.Fatal("negative ttl should fail")
	}
	if _, err := NewEventGuard(rdb, time.Hour, ""); err == nil {
		t.Fatal("empty scope should fail")
	}

	g, _ := NewEventGuard(rdb, time.Hour, "x")
	if _, err := g.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("empty event id should fail")
	}
	if err := g.Delete(context.Background(), ""); err == nil {
		t.Fatal("empty event id should fail")
	}
}

func TestEventGuard_StoreDown(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	g, _ := NewEventGuard(rdb, time.Hour, "x")

	s.Close()
	if _, err := g.CheckAndMark(context.Background(), "evt"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
