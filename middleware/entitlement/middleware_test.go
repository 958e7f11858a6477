package entitlement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"entitlement-gateway/middleware/entitlement/application"
	"entitlement-gateway/middleware/entitlement/domain"
	"entitlement-gateway/middleware/entitlement/infra"
)

func newTestOptions() Options {
	return Options{
		Gate: application.Gate{
			Config:  domain.DefaultConfig(),
			Counter: infra.NewMemoryCounterStore(infra.WithCounterCleanupEvery(0)),
		},
		Stats:     infra.NewMemoryStatsStore(),
		SessionFn: func(http.ResponseWriter, *http.Request) domain.SessionKey { return "session-1" },
	}
}

func TestSearchMiddleware_GuestQuotaThenBlocked(t *testing.T) {
	opts := newTestOptions()

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		dec, ok := DecisionFromContext(r.Context())
		if !ok || !dec.Allowed {
			t.Errorf("expected allowed decision in context, got %+v (ok=%v)", dec, ok)
		}
		w.WriteHeader(http.StatusOK)
	})
	h := SearchMiddleware(opts)(next)

	wantRemaining := []string{"2", "1", "0"}
	wantWarning := []string{"false", "true", "false"}
	for i := range wantRemaining {
		r := httptest.NewRequest(http.MethodGet, "http://example/api/search?q=tv", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("search #%d: expected 200, got %d", i+1, w.Code)
		}
		if got := w.Header().Get(HeaderSearchesRemaining); got != wantRemaining[i] {
			t.Fatalf("search #%d: expected remaining %s, got %q", i+1, wantRemaining[i], got)
		}
		if got := w.Header().Get(HeaderSearchWarning); got != wantWarning[i] {
			t.Fatalf("search #%d: expected warning %s, got %q", i+1, wantWarning[i], got)
		}
		if got := w.Header().Get(HeaderDisplayLimit); got != "15" {
			t.Fatalf("search #%d: expected display limit 15, got %q", i+1, got)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "http://example/api/search?q=tv", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 after quota, got %d", w.Code)
	}
	var body limitError
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "guest_search_limit_reached" || body.Limit != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if calls != 3 {
		t.Fatalf("expected next handler to be called 3 times, got %d", calls)
	}

	total := opts.Stats.(*infra.MemoryStatsStore).Total()
	if total.Allowed != 3 || total.Exhausted != 1 || total.Warnings != 1 {
		t.Fatalf("unexpected stats: %+v", total)
	}
}

func TestSearchMiddleware_AuthenticatedUnlimited(t *testing.T) {
	opts := newTestOptions()
	h := SearchMiddleware(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://example/api/search", nil)
		r.Header.Set(HeaderAuthenticated, "true")
		r.Header.Set(HeaderSubscriptionTier, "pro")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := w.Header().Get(HeaderDisplayLimit); got != "50" {
			t.Fatalf("expected paid display limit 50, got %q", got)
		}
		if got := w.Header().Get(HeaderSearchesRemaining); got != "" {
			t.Fatalf("expected no remaining header for users, got %q", got)
		}
	}
}

func TestSearchMiddleware_ThrottleRejectsWithRetryAfter(t *testing.T) {
	opts := newTestOptions()
	opts.Gate.Throttle = infra.NewThrottle(infra.ThrottleRate{RPS: 0.02, Burst: 1})
	opts.RetryAfter = 2500 * time.Millisecond
	h := SearchMiddleware(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r1 := httptest.NewRequest(http.MethodGet, "http://example/api/search", nil)
	r1.RemoteAddr = "10.0.0.1:1234"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}

	r2 := httptest.NewRequest(http.MethodGet, "http://example/api/search", nil)
	r2.RemoteAddr = "10.0.0.1:4321"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After=2, got %q", got)
	}

	if n, _ := opts.Gate.Counter.Get(r2.Context(), "session-1"); n != 1 {
		t.Fatalf("throttled search must not consume quota, count=%d", n)
	}
}

func TestSearchMiddleware_NoStoreFailsOpen(t *testing.T) {
	opts := newTestOptions()
	opts.Gate.Counter = nil
	h := SearchMiddleware(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/api/search", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 without counter store, got %d", w.Code)
		}
	}
}
