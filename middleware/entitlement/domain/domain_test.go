package domain

import "testing"

func TestParseTier(t *testing.T) {
	if got := ParseTier("  PREMIUM "); got != TierPremium {
		t.Fatalf("expected premium, got %q", got)
	}
	if ParseTier("gold").Known() {
		t.Fatalf("expected gold to be unknown")
	}
	for _, tier := range []Tier{TierPro, TierPremium, TierEnterprise} {
		if !tier.Paid() {
			t.Fatalf("expected %q to be paid", tier)
		}
	}
	if TierFree.Paid() || TierGuest.Paid() {
		t.Fatalf("free/guest must not be paid")
	}
}

func TestConfig_ProductDisplayLimit(t *testing.T) {
	c := DefaultConfig()
	if got := c.ProductDisplayLimit(false, TierEnterprise); got != 15 {
		t.Fatalf("guest with paid tier string must get guest limit, got %d", got)
	}
	if got := c.ProductDisplayLimit(true, "unknown-tier"); got != 20 {
		t.Fatalf("unknown tier must fall back to free limit, got %d", got)
	}
}

func TestConfig_NormalizeReplacesNegatives(t *testing.T) {
	got := Config{GuestFreeSearches: -1, GuestProductDisplayLimit: 4, FreeTierProductDisplayLimit: -9, PaidTierProductDisplayLimit: 0}.Normalize()
	want := Config{GuestFreeSearches: 3, GuestProductDisplayLimit: 4, FreeTierProductDisplayLimit: 20, PaidTierProductDisplayLimit: 0}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestCategorySet(t *testing.T) {
	var empty CategorySet
	if empty.Has(CategoryPets) {
		t.Fatalf("nil set must be empty")
	}
	s := NewCategorySet(CategoryPets, "", CategoryBaby)
	if len(s) != 2 || !s.Has(CategoryBaby) {
		t.Fatalf("unexpected set %v", s)
	}
	if sorted := s.Sorted(); sorted[0] != CategoryBaby || sorted[1] != CategoryPets {
		t.Fatalf("expected sorted output, got %v", sorted)
	}
	if !ParseCategory(" Home-Kitchen ").Unlockable() || Category("groceries").Unlockable() {
		t.Fatalf("unexpected unlockable membership")
	}
	if len(UnlockableCategories()) != 8 {
		t.Fatalf("expected 8 unlockable categories")
	}
}

func TestThrottleClassOf(t *testing.T) {
	if got := ThrottleClassOf(Guest()); got != ThrottleGuest {
		t.Fatalf("expected guest class, got %q", got)
	}
	if got := ThrottleClassOf(Viewer{Authenticated: true, Tier: "gold"}); got != ThrottleMember {
		t.Fatalf("expected member class for any signed-in viewer, got %q", got)
	}
}
