package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := OpenRedis(mr.Addr(), 2)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	if got := rdb.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Set(ctx, "credlio:probe", "1", time.Minute).Err(); err != nil {
		t.Fatalf("SET: %v", err)
	}
	mr.Select(2)
	if !mr.Exists("credlio:probe") {
		t.Fatal("key not written to db 2")
	}
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedis(addr, 0)
	if err == nil {
		t.Fatal("expected error for a stopped server")
	}
	if !strings.Contains(err.Error(), addr) {
		t.Fatalf("error should name the address, got %v", err)
	}
}
