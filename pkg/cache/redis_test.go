package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"transit_router/pkg/tnr"
)

func TestRedisKey(t *testing.T) {
	r := &Redis{prefix: DefaultPrefix}
	if got := r.key(12, 40411); got != "tnr:dist:12:40411" {
		t.Errorf("key = %q", got)
	}
}

func TestRedisValueEncoding(t *testing.T) {
	tests := []struct {
		d    tnr.Distance
		want string
	}{
		{tnr.Finite(1234.5), "1234.5"},
		{tnr.Finite(0), "0"},
		{tnr.Unreachable, "inf"},
	}
	for _, tt := range tests {
		if got := encodeDistance(tt.d); got != tt.want {
			t.Errorf("encodeDistance(%v) = %q, want %q", tt.d, got, tt.want)
		}
		got, err := decodeDistance(tt.want)
		if err != nil || got != tt.d {
			t.Errorf("decodeDistance(%q) = %v, %v; want %v", tt.want, got, err, tt.d)
		}
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedis(ctx, "127.0.0.1:1", time.Minute); err == nil {
		t.Error("expected error connecting to a closed port")
	}
}

func TestRedisIntegration(t *testing.T) {
	addr := os.Getenv("TNR_REDIS_ADDR")
	if addr == "" {
		t.Skip("TNR_REDIS_ADDR not set, skipping integration test")
	}

	ctx := context.Background()
	r, err := NewRedis(ctx, addr, time.Minute)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()
	r.prefix = "tnr:test:" + time.Now().Format("150405.000000") + ":"

	if _, ok, err := r.Get(ctx, 1, 2); err != nil || ok {
		t.Fatalf("Get on empty key = %v, %v", ok, err)
	}
	if err := r.Set(ctx, 1, 2, tnr.Finite(42.5)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.Set(ctx, 3, 4, tnr.Unreachable); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if d, ok, err := r.Get(ctx, 1, 2); err != nil || !ok || d != tnr.Finite(42.5) {
		t.Errorf("Get(1, 2) = %v, %v, %v", d, ok, err)
	}
	if d, ok, err := r.Get(ctx, 3, 4); err != nil || !ok || d.Reachable() {
		t.Errorf("Get(3, 4) = %v, %v, %v; want cached unreachable", d, ok, err)
	}
}
