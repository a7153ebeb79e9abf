package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type countingLimiter struct {
	counts map[string]int64
	err    error
}

func (l *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	if l.counts == nil {
		l.counts = map[string]int64{}
	}
	l.counts[scope]++
	return l.counts[scope] <= limit, l.counts[scope], nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &countingLimiter{}
	policy := NewRateLimitPolicy("checkout", time.Minute, 2)
	handler := RateLimit(policy, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/success", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if _, ok := limiter.counts["checkout:user:user-1"]; !ok {
		t.Fatalf("expected user scoped key, got %v", limiter.counts)
	}
}

func TestRateLimitKeysAnonymousByIP(t *testing.T) {
	limiter := &countingLimiter{}
	handler := RateLimit(NewRateLimitPolicy("quote", time.Minute, 5), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if _, ok := limiter.counts["quote:ip:203.0.113.9"]; !ok {
		t.Fatalf("expected ip scoped key, got %v", limiter.counts)
	}
}

func TestRateLimitSurfacesStoreErrors(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	handler := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 2), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("off", 0, 0), &countingLimiter{err: errors.New("unused")}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
}
