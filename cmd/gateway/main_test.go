package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"entitlement-gateway/middleware/entitlement"
	"entitlement-gateway/middleware/entitlement/config"
	"entitlement-gateway/middleware/entitlement/infra"
)

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig(config.MapLookup(map[string]string{"UPSTREAM_URL": "http://search:9000"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.listenAddr != ":8080" || cfg.searchPath != "/api/search" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.rejectStatus != http.StatusPaymentRequired {
		t.Fatalf("expected 402 reject status, got %d", cfg.rejectStatus)
	}
	if cfg.sessionTTL != 30*time.Minute || cfg.sessionCookie != "guest_session" {
		t.Fatalf("unexpected session defaults: %+v", cfg)
	}
	if cfg.trustViewerHeaders {
		t.Fatalf("viewer headers must not be trusted by default")
	}
}

func TestReadConfig_Validation(t *testing.T) {
	tests := map[string]map[string]string{
		"missing upstream":  {},
		"relative search":   {"UPSTREAM_URL": "http://s", "SEARCH_PATH": "api/search"},
		"non 4xx status":    {"UPSTREAM_URL": "http://s", "GUEST_LIMIT_STATUS": "200"},
		"zero session ttl":  {"UPSTREAM_URL": "http://s", "SESSION_TTL": "0s"},
		"zero throttle rps": {"UPSTREAM_URL": "http://s", "THROTTLE_RPS": "0"},
		"zero burst":        {"UPSTREAM_URL": "http://s", "THROTTLE_BURST": "0"},
		"zero member rps":   {"UPSTREAM_URL": "http://s", "THROTTLE_MEMBER_RPS": "0"},
		"negative redis db": {"UPSTREAM_URL": "http://s", "REDIS_DB": "-1"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := readConfig(config.MapLookup(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestReadConfig_ThrottleDisabledSkipsValidation(t *testing.T) {
	_, err := readConfig(config.MapLookup(map[string]string{
		"UPSTREAM_URL":     "http://s",
		"THROTTLE_ENABLED": "false",
		"THROTTLE_RPS":     "0",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadConfig_RejectsRootSearchPath(t *testing.T) {
	for _, p := range []string{"/", "//"} {
		if _, err := readConfig(config.MapLookup(map[string]string{"UPSTREAM_URL": "http://s", "SEARCH_PATH": p})); err == nil {
			t.Fatalf("expected error for SEARCH_PATH=%q", p)
		}
	}
}

func TestNewMux_SearchSubtreeIsGated(t *testing.T) {
	cfg, err := readConfig(config.MapLookup(map[string]string{"UPSTREAM_URL": "http://s"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mux := newMux(cfg, entitlement.Options{}, tagHandler("search"), tagHandler("proxy"), nil)

	tests := map[string]string{
		"/api/search":         "search",
		"/api/search/":        "search",
		"/api/search/x":       "search",
		"/api/searchable":     "proxy",
		"/api/products/1":     "proxy",
		"/entitlements/other": "proxy",
	}
	for path, want := range tests {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://gw"+path, nil))
		if got := w.Body.String(); got != want {
			t.Errorf("%s: expected %q handler, got %q (status %d)", path, want, got, w.Code)
		}
	}
}

func TestNewMux_AdminRoutesNeedToken(t *testing.T) {
	env := map[string]string{"UPSTREAM_URL": "http://s", "ENTITLEMENT_ADMIN_TOKEN": "s3cret"}
	cfg, err := readConfig(config.MapLookup(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mux := newMux(cfg, entitlement.Options{}, tagHandler("search"), tagHandler("proxy"), infra.NewMemoryStatsStore())

	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "http://gw/entitlements/reset?session=abc", nil),
		httptest.NewRequest(http.MethodGet, "http://gw/entitlements/stats", nil),
	} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without token, got %d", r.Method, r.URL.Path, w.Code)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "http://gw/entitlements/stats", nil)
	r.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	cfg.adminToken = ""
	mux = newMux(cfg, entitlement.Options{}, tagHandler("search"), tagHandler("proxy"), nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://gw/entitlements/reset?session=abc", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without configured token, got %d", w.Code)
	}
}

func tagHandler(tag string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(tag))
	})
}
