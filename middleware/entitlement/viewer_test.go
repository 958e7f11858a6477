package entitlement

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"entitlement-gateway/middleware/entitlement/domain"
)

func TestHeaderViewer_Guest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set(HeaderSubscriptionTier, "premium")

	v := HeaderViewer(r)
	if v.Authenticated || v.Tier != domain.TierGuest {
		t.Fatalf("expected guest viewer, got %+v", v)
	}
}

func TestHeaderViewer_Subscriber(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set(HeaderAuthenticated, "true")
	r.Header.Set(HeaderSubscriptionTier, " Premium ")
	r.Header.Set(HeaderSubscriptionActive, "1")
	r.Header.Set(HeaderUnlockedCategories, "pets, Beauty,unknown,,")

	v := HeaderViewer(r)
	if !v.Authenticated || v.Tier != domain.TierPremium || !v.ActiveSubscription {
		t.Fatalf("unexpected viewer: %+v", v)
	}
	if len(v.UnlockedCategories) != 2 || !v.UnlockedCategories.Has(domain.CategoryPets) || !v.UnlockedCategories.Has(domain.CategoryBeauty) {
		t.Fatalf("unexpected unlocked categories: %v", v.UnlockedCategories)
	}
}

func TestStripViewerHeaders(t *testing.T) {
	var got domain.Viewer
	h := StripViewerHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = HeaderViewer(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set(HeaderAuthenticated, "true")
	r.Header.Set(HeaderSubscriptionTier, "enterprise")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got.Authenticated {
		t.Fatalf("expected spoofed auth headers to be removed")
	}
}
