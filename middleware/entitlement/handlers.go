package entitlement

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"entitlement-gateway/middleware/entitlement/domain"
	"entitlement-gateway/middleware/entitlement/infra"
)

// EntitlementsHandler responde GET com o retrato dos entitlements do visitante
// (usado pela UI para decidir aviso/upsell antes de buscar).
func EntitlementsHandler(opts Options) http.Handler {
	opts = opts.withDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		viewer := opts.ViewerFn(r)
		session := opts.SessionFn(w, r)
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, opts.Gate.Snapshot(r.Context(), session, viewer))
	})
}

// ResetHandler zera o contador de buscas da sessão atual (POST ou DELETE).
//
// Qualquer visitante que alcance este handler recupera a cota: não monte em
// rota pública. No gateway use AdminResetHandler.
func ResetHandler(opts Options) http.Handler {
	opts = opts.withDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			w.Header().Set("Allow", "POST, DELETE")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		session := opts.SessionFn(w, r)
		opts.Gate.ResetGuestSearchCount(r.Context(), session)
		w.WriteHeader(http.StatusNoContent)
	})
}

// AdminResetHandler zera o contador da sessão informada em ?session=, para operadores.
// Exige Authorization: Bearer <token>; token vazio recusa tudo.
func AdminResetHandler(token string, opts Options) http.Handler {
	opts = opts.withDefaults()
	return RequireAdminToken(token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			w.Header().Set("Allow", "POST, DELETE")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		session := strings.TrimSpace(r.URL.Query().Get("session"))
		if session == "" {
			http.Error(w, "session is required", http.StatusBadRequest)
			return
		}
		opts.Gate.ResetGuestSearchCount(r.Context(), domain.SessionKey(session))
		w.WriteHeader(http.StatusNoContent)
	}))
}

// RequireAdminToken protege rotas de operação com um bearer token fixo.
func RequireAdminToken(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="entitlements"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StatsHandler expõe o snapshot das estatísticas em memória (painel admin).
func StatsHandler(stats *infra.MemoryStatsStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if stats == nil {
			http.Error(w, "stats not available", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, stats.Snapshot())
	})
}
