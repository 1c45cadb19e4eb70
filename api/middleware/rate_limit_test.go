package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeWindowLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeWindowLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestRateLimitScopesByUser(t *testing.T) {
	limiter := &fakeWindowLimiter{counts: map[string]int64{}}
	handler := RateLimit(limiter, 1, time.Minute, nil)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inbox", nil)
		req = req.WithContext(WithUserID(req.Context(), "user-1"))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("request %d: expected %d got %d", i, want, resp.Code)
		}
	}
	if limiter.counts["api:user:user-1"] != 2 {
		t.Fatalf("unexpected counters %v", limiter.counts)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inbox", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-2"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("other users must not share the window, got %d", resp.Code)
	}
}

func TestRateLimitDependencyFailure(t *testing.T) {
	limiter := &fakeWindowLimiter{err: errors.New("redis down")}
	handler := RateLimit(limiter, 5, time.Minute, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(nil, 5, time.Minute, nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
