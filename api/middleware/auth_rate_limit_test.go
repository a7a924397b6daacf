package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/foodhaul-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
)

func allowedHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func loginRequest(body, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/customer/login", strings.NewReader(body))
	req.RemoteAddr = remote
	return req
}

func TestAuthRateLimitPassesBodyThrough(t *testing.T) {
	limiter := newFakeLimiter()
	policy := AuthRateLimitPolicy{Name: "login", Window: time.Minute, IPLimit: 2, AccountLimit: 2}
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"asha@example.com"`) {
			t.Fatalf("body not restored: %s", body)
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{"email":"asha@example.com","password":"secret"}`, "1.2.3.4:5678"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRateLimitAccountLimitSetsRetryAfter(t *testing.T) {
	limiter := newFakeLimiter()
	policy := AuthRateLimitPolicy{Name: "login", Window: 90 * time.Second, AccountLimit: 2}
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(allowedHandler))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest(`{"email":"blocked@example.com","password":"secret"}`, "1.2.3.4:5678"))
		if i < 2 {
			if rec.Code != http.StatusOK {
				t.Fatalf("attempt %d: expected 200, got %d", i, rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if got := rec.Header().Get("Retry-After"); got != "90" {
			t.Fatalf("expected Retry-After 90, got %q", got)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code: %s", payload.Error.Code)
		}
	}
}

func TestAuthRateLimitNormalizesEmail(t *testing.T) {
	limiter := newFakeLimiter()
	policy := AuthRateLimitPolicy{Name: "login", Window: time.Minute, AccountLimit: 1}
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(allowedHandler))

	codes := []int{}
	for _, email := range []string{"Case@Example.com", " case@example.com "} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest(`{"email":"`+email+`","password":"secret"}`, "9.9.9.9:1"))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}
	if len(limiter.counts) != 1 {
		t.Fatalf("expected one account scope, got %d", len(limiter.counts))
	}
}

func TestAuthRateLimitFallsBackToPhone(t *testing.T) {
	limiter := newFakeLimiter()
	policy := RegisterRateLimit(config.AuthRateLimitConfig{RegisterWindow: time.Minute, RegisterEmailLimit: 1})
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(allowedHandler))

	codes := []int{}
	for _, remote := range []string{"1.1.1.1:1", "2.2.2.2:2"} {
		req := httptest.NewRequest(http.MethodPost, "/delivery/register", strings.NewReader(`{"phone":"9876543210","password":"secret"}`))
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}
}

func TestAuthRateLimitIPLimitUsesForwardedFor(t *testing.T) {
	limiter := newFakeLimiter()
	policy := LoginRateLimit(config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 1})
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(allowedHandler))

	for i := 0; i < 2; i++ {
		req := loginRequest(`{"email":"foo@example.com"}`, "10.0.0.1:1234")
		req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 on second attempt, got %d", rec.Code)
		}
	}
	if _, ok := limiter.counts["ip:login:203.0.113.7"]; !ok {
		t.Fatalf("expected forwarded client ip scope, got %v", limiter.counts)
	}
}

func TestAuthRateLimitLimiterFailure(t *testing.T) {
	limiter := newFakeLimiter()
	limiter.err = errors.New("redis down")
	policy := AuthRateLimitPolicy{Name: "login", Window: time.Minute, IPLimit: 5}
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(allowedHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{}`, "1.2.3.4:1"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAuthRateLimitDisabledPolicy(t *testing.T) {
	handler := AuthRateLimit(AuthRateLimitPolicy{Name: "login"}, newFakeLimiter(), nil)(http.HandlerFunc(allowedHandler))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{}`, "1.2.3.4:1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}
