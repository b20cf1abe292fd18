package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/salon/salon/pkg/apierror"
)

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         5,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Send 5 requests (within burst size), all should pass
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}

		// Verify X-RateLimit-Limit header is set
		limitHeader := rec.Header().Get("X-RateLimit-Limit")
		if limitHeader != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, limitHeader)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// First 2 requests should pass (burst size = 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := handler(c)
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	// Third request should be rate limited
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)

	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierror.Error, got %T", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", apiErr.Status)
	}
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// First request passes
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)

	// Second request should be rate limited and include Retry-After
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	err := handler(c)

	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}

	retryAfter := rec.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Error("expected Retry-After header to be set")
	}

	retryVal, parseErr := strconv.Atoi(retryAfter)
	if parseErr != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", retryAfter)
	}
	if retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retryVal)
	}

	// Check X-RateLimit-Remaining is "0" for rate-limited requests
	remaining := rec.Header().Get("X-RateLimit-Remaining")
	if remaining != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", remaining)
	}
}

func TestRateLimit_PerKeyIsolation(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// First request from 10.0.0.1 - should pass
	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	rec1 := httptest.NewRecorder()
	c1 := e.NewContext(req1, rec1)
	err := handler(c1)
	if err != nil {
		t.Fatalf("10.0.0.1 first request: expected no error, got %v", err)
	}

	// Second request from 10.0.0.1 - should be rate limited
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)
	err = handler(c2)
	if err == nil {
		t.Fatal("10.0.0.1 second request: expected rate limit error")
	}

	// First request from 10.0.0.2 - should pass (separate bucket)
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.Header.Set(echo.HeaderXRealIP, "10.0.0.2")
	rec3 := httptest.NewRecorder()
	c3 := e.NewContext(req3, rec3)
	err = handler(c3)
	if err != nil {
		t.Fatalf("10.0.0.2 first request: expected no error, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestRateLimit_ZeroRateRejectsAfterBurst(t *testing.T) {
	cfg := RateLimitConfig{
		RequestsPerSecond: 0,
		BurstSize:         1,
	}

	e := echo.New()
	mw := RateLimit(cfg)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("burst request: expected no error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	if err == nil {
		t.Fatal("expected rate limit error once burst is spent")
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestLimiterStore_OneLimiterPerKey(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         5,
	})

	l1 := store.get("key1")
	if l1 == nil {
		t.Fatal("expected non-nil limiter")
	}
	if l2 := store.get("key1"); l1 != l2 {
		t.Error("expected same limiter instance for same key")
	}
	if l3 := store.get("key2"); l1 == l3 {
		t.Error("expected different limiter for different key")
	}
}
