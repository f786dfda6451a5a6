package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

func stubRedis(t *testing.T, pingErr error) *string {
	t.Helper()

	origNewClient := newRedisClient
	origPing := pingRedis
	t.Cleanup(func() {
		newRedisClient = origNewClient
		pingRedis = origPing
		Client = nil
	})

	var capturedAddr string
	newRedisClient = func(opts *redis.Options) *redis.Client {
		capturedAddr = opts.Addr
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return pingErr
	}
	return &capturedAddr
}

func TestInitRedisWithCustomAddr(t *testing.T) {
	addr := stubRedis(t, nil)

	InitRedis(context.Background(), "redis:9999")
	if *addr != "redis:9999" {
		t.Fatalf("expected custom addr, got %s", *addr)
	}
	if Client == nil || Redis() == nil {
		t.Fatal("expected connected client")
	}
}

func TestInitRedisWithURL(t *testing.T) {
	addr := stubRedis(t, nil)

	InitRedis(context.Background(), "redis://cache:6380/2")
	if *addr != "cache:6380" {
		t.Fatalf("expected parsed addr, got %s", *addr)
	}
}

func TestInitRedisDisabled(t *testing.T) {
	addr := stubRedis(t, nil)

	InitRedis(context.Background(), "")
	if *addr != "" {
		t.Fatalf("no client should be created, got addr %s", *addr)
	}
	if Client != nil || Redis() != nil {
		t.Fatal("expected caching disabled")
	}
}

func TestInitRedisPingFailureDisablesCache(t *testing.T) {
	stubRedis(t, errors.New("connection refused"))

	InitRedis(context.Background(), "localhost:6379")
	if Client != nil || Redis() != nil {
		t.Fatal("unreachable redis should disable caching")
	}
}
