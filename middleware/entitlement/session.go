package entitlement

import (
	"net/http"
	"strings"

	"entitlement-gateway/middleware/entitlement/domain"

	"github.com/google/uuid"
)

// DefaultSessionCookie é o cookie que identifica a sessão do visitante.
const DefaultSessionCookie = "guest_session"

// SessionFunc resolve a sessão da request; pode emitir um cookie na resposta.
type SessionFunc func(w http.ResponseWriter, r *http.Request) domain.SessionKey

type SessionOptions struct {
	CookieName string
	Secure     bool
	Path       string
}

// CookieSession lê a sessão do cookie. Sem cookie (ou com valor que não é UUID)
// emite uma sessão nova. O cookie não tem Max-Age: o navegador o descarta
// quando a sessão de navegação termina.
func CookieSession(opts SessionOptions) SessionFunc {
	name := strings.TrimSpace(opts.CookieName)
	if name == "" {
		name = DefaultSessionCookie
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}

	return func(w http.ResponseWriter, r *http.Request) domain.SessionKey {
		if c, err := r.Cookie(name); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				return domain.SessionKey(id.String())
			}
		}

		id := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    id,
			Path:     path,
			HttpOnly: true,
			Secure:   opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		// requests seguintes no mesmo handler (ex: reset + status) enxergam a mesma sessão
		r.AddCookie(&http.Cookie{Name: name, Value: id})
		return domain.SessionKey(id)
	}
}
