package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_RequestsWithinLimit_Pass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 10, 10, discardLogger())(okHandler())

	for i := 0; i < 5; i++ {
		rr := serveFrom(handler, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, rr.Code, "request %d should pass", i+1)
	}
}

func TestRateLimit_ExceedingBurst_Returns429(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 0.001, 2, discardLogger())(okHandler())

	assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:2").Code)

	rr := serveFrom(handler, "10.0.0.1:3")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
	assert.Contains(t, rr.Body.String(), "too many requests")
}

func TestRateLimit_DifferentIPs_IndependentLimits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 0.001, 1, discardLogger())(okHandler())

	assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(handler, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.2:1").Code)
}

func TestRateLimit_RotatingForwardedFor_StillLimited(t *testing.T) {
	store := newVisitorStore(1, 1, time.Minute)
	handler := rateLimit(store, discardLogger())(okHandler())

	limited := 0
	for i := 1; i <= 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 49, limited)
	assert.Equal(t, 1, store.len(), "one visitor per socket peer")
}

func TestRateLimit_Disabled_PassesThrough(t *testing.T) {
	handler := RateLimit(context.Background(), 0, 0, discardLogger())(okHandler())

	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.9:1").Code)
	}
}

func TestVisitorStore_CleanupEvictsIdle(t *testing.T) {
	store := newVisitorStore(1, 1, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }

	store.get("10.0.0.1")
	now = now.Add(30 * time.Second)
	store.get("10.0.0.2")
	assert.Equal(t, 2, store.len())

	now = now.Add(45 * time.Second)
	store.cleanup()
	assert.Equal(t, 1, store.len())
}

func TestClientIP_XForwardedFor_FirstHop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.2")
	req.RemoteAddr = "10.0.0.1:12345"

	assert.Equal(t, "203.0.113.50", ClientIP(req))
}

func TestClientIP_XRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.42")
	req.RemoteAddr = "10.0.0.1:12345"

	assert.Equal(t, "198.51.100.42", ClientIP(req))
}

func TestClientIP_InvalidForwardedHeader_FallsBack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "garbage")
	req.RemoteAddr = "10.0.0.1:12345"

	assert.Equal(t, "10.0.0.1", ClientIP(req))
}

func TestClientIP_RemoteAddr_Fallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"

	assert.Equal(t, "10.0.0.1", ClientIP(req))
}

func TestPeerIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/view", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	req.Header.Set("X-Real-IP", "198.51.100.42")
	req.RemoteAddr = "10.0.0.1:12345"

	assert.Equal(t, "10.0.0.1", PeerIP(req))
	assert.Equal(t, "203.0.113.50", ClientIP(req))
}

func TestPeerIP_NoPort_ReturnsRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1"

	assert.Equal(t, "10.0.0.1", PeerIP(req))
}
