package entitlement

import (
	"net/http"
	"strconv"
	"strings"

	"entitlement-gateway/middleware/entitlement/domain"
)

// Headers preenchidos pelo proxy de autenticação externo.
const (
	HeaderAuthenticated      = "X-User-Authenticated"
	HeaderSubscriptionTier   = "X-Subscription-Tier"
	HeaderSubscriptionActive = "X-Subscription-Active"
	HeaderUnlockedCategories = "X-Unlocked-Categories"
)

// ViewerFunc resolve o visitante da request.
type ViewerFunc func(r *http.Request) domain.Viewer

// HeaderViewer lê o viewer dos headers do proxy de auth.
// Só confie nesses headers quando o proxy remove os valores vindos do cliente.
func HeaderViewer(r *http.Request) domain.Viewer {
	auth, _ := strconv.ParseBool(strings.TrimSpace(r.Header.Get(HeaderAuthenticated)))
	if !auth {
		return domain.Guest()
	}
	active, _ := strconv.ParseBool(strings.TrimSpace(r.Header.Get(HeaderSubscriptionActive)))

	return domain.Viewer{
		Authenticated:      true,
		Tier:               domain.ParseTier(r.Header.Get(HeaderSubscriptionTier)),
		ActiveSubscription: active,
		UnlockedCategories: ParseCategories(r.Header.Get(HeaderUnlockedCategories)),
	}
}

// GuestViewer trata todo mundo como visitante (headers de auth não confiáveis).
func GuestViewer(*http.Request) domain.Viewer {
	return domain.Guest()
}

// ParseCategories lê uma lista separada por vírgula, mantendo só categorias desbloqueáveis.
func ParseCategories(raw string) domain.CategorySet {
	set := domain.NewCategorySet()
	for _, part := range strings.Split(raw, ",") {
		if c := domain.ParseCategory(part); c.Unlockable() {
			set[c] = struct{}{}
		}
	}
	return set
}

// StripViewerHeaders remove os headers de auth vindos do cliente.
func StripViewerHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range []string{HeaderAuthenticated, HeaderSubscriptionTier, HeaderSubscriptionActive, HeaderUnlockedCategories} {
			r.Header.Del(h)
		}
		next.ServeHTTP(w, r)
	})
}
