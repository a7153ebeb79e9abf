package redis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	client := &Client{store: mock, now: func() time.Time { return now }}

	allowed, count, err := client.FixedWindowAllow(ctx, "quote:ip:1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected first hit allowed with count 1, got %v %d", allowed, count)
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expected one expire with window ttl, got %+v", mock.expireCalls)
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "quote:ip:1.2.3.4", 2, time.Minute)
	if err != nil || !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d err=%v", allowed, count, err)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should only be set on the first hit of a window")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "quote:ip:1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestFixedWindowAllowResetsOnNextWindow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	now := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	client := &Client{store: mock, now: func() time.Time { return now }}

	for i := 0; i < 3; i++ {
		if _, _, err := client.FixedWindowAllow(ctx, "checkout:user:u1", 1, time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	now = now.Add(time.Minute)
	allowed, count, err := client.FixedWindowAllow(ctx, "checkout:user:u1", 1, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected fresh window, got allowed=%v count=%d", allowed, count)
	}
	if len(mock.incr) != 2 {
		t.Fatalf("expected two window buckets, got %v", mock.incr)
	}
	for key := range mock.incr {
		if !strings.HasPrefix(key, "vd:rate_limit:checkout:user:u1:") {
			t.Fatalf("unexpected bucket key %s", key)
		}
	}
}

func TestFixedWindowAllowRejectsZeroWindow(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	if _, _, err := client.FixedWindowAllow(context.Background(), "scope", 1, 0); err == nil {
		t.Fatalf("expected error for zero window")
	}
}

func TestSetNXOnlyClaimsOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.IdempotencyKey("evt:notification-dispatch", "evt-1")

	first, err := client.SetNX(ctx, key, "1", time.Hour)
	if err != nil || !first {
		t.Fatalf("expected first claim to succeed, got %v %v", first, err)
	}
	second, err := client.SetNX(ctx, key, "1", time.Hour)
	if err != nil || second {
		t.Fatalf("expected second claim to be rejected, got %v %v", second, err)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("checkout", "abc"); got != "vd:idempotency:checkout:abc" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("quotes:user-1"); got != "vd:rate_limit:quotes:user-1" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.IdempotencyKey("stripe-webhook", ""); got != "vd:idempotency:stripe-webhook" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
