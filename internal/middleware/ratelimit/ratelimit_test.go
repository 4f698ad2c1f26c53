package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute, burst int) (*Limiter, *fakeClock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Burst: burst, CleanupInterval: time.Hour, IdleTTL: 10 * time.Minute})
	t.Cleanup(rl.Stop)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestAllowBurstThenRefill(t *testing.T) {
	rl, clock := newTestLimiter(t, 60, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should pass within burst", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients have their own bucket")
	}

	clock.t = clock.t.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("one token should refill after a second at 60/min")
	}
	if rl.Rejected() != 1 {
		t.Fatalf("expected 1 rejection, got %d", rl.Rejected())
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 60, 1)
	rl.Allow("a")
	clock.t = clock.t.Add(5 * time.Minute)
	rl.Allow("b")
	clock.t = clock.t.Add(6 * time.Minute)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("expected 1 stale client removed, got %d", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("expected 1 active client, got %d", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 60, 1)
	h := rl.Middleware(func(r *http.Request) string { return r.RemoteAddr }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.RemoteAddr = "9.9.9.9:1000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Error("missing Retry-After header")
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
