package entitlement

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"entitlement-gateway/middleware/entitlement/application"
	"entitlement-gateway/middleware/entitlement/domain"

	"go.uber.org/zap"
)

// Headers de resposta com o resultado do gate.
const (
	HeaderSearchesRemaining = "X-Guest-Searches-Remaining"
	HeaderSearchWarning     = "X-Search-Limit-Warning"
	HeaderDisplayLimit      = "X-Product-Display-Limit"
	HeaderProductsTotal     = "X-Products-Total"
)

type Options struct {
	Gate  application.Gate
	Stats domain.StatsStore

	SessionFn SessionFunc
	ViewerFn  ViewerFunc

	// ClientKeyFn/KeyHeader/TrustXForwardedFor definem o cliente do throttle.
	ClientKeyFn        ClientKeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	// RejectStatus é usado quando a cota do visitante acabou (padrão 402).
	RejectStatus int
	// RetryAfter é usado quando o throttle bloqueia (padrão 1s).
	RetryAfter time.Duration

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.RejectStatus == 0 {
		o.RejectStatus = http.StatusPaymentRequired
	}
	if o.RetryAfter <= 0 {
		o.RetryAfter = 1 * time.Second
	}
	if o.SessionFn == nil {
		o.SessionFn = CookieSession(SessionOptions{})
	}
	if o.ViewerFn == nil {
		o.ViewerFn = HeaderViewer
	}
	if o.ClientKeyFn == nil {
		o.ClientKeyFn = ClientKeys(o.KeyHeader, o.TrustXForwardedFor)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Gate.Logger == nil {
		o.Gate.Logger = o.Logger
	}
	return o
}

type ctxKey struct{}

type requestState struct {
	session  domain.SessionKey
	viewer   domain.Viewer
	decision domain.SearchDecision
}

func withState(ctx context.Context, st requestState) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

func stateFrom(ctx context.Context) (requestState, bool) {
	st, ok := ctx.Value(ctxKey{}).(requestState)
	return st, ok
}

// DecisionFromContext retorna a decisão tomada pelo SearchMiddleware.
func DecisionFromContext(ctx context.Context) (domain.SearchDecision, bool) {
	st, ok := stateFrom(ctx)
	return st.decision, ok
}

// ViewerFromContext retorna o viewer resolvido pelo SearchMiddleware.
func ViewerFromContext(ctx context.Context) (domain.Viewer, bool) {
	st, ok := stateFrom(ctx)
	return st.viewer, ok
}

type limitError struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
}

// SearchMiddleware aplica throttle + cota de visitante em cada busca.
func SearchMiddleware(opts Options) func(next http.Handler) http.Handler {
	opts = opts.withDefaults()
	gate := opts.Gate
	log := opts.Logger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := opts.ViewerFn(r)
			session := opts.SessionFn(w, r)

			ev := domain.GateEvent{
				Session:       session,
				Authenticated: viewer.Authenticated,
				Tier:          viewer.Tier,
				At:            time.Now(),
			}

			if !gate.Allow(opts.ClientKeyFn(r), viewer) {
				ev.Outcome = domain.OutcomeThrottled
				record(r.Context(), opts.Stats, log, ev)
				w.Header().Set("Retry-After", formatInt(int(opts.RetryAfter.Seconds())))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			dec := gate.DecideSearch(r.Context(), session, viewer)
			ev.Warning = dec.ShowWarning
			ev.Outcome = domain.OutcomeAllowed
			if !dec.Allowed {
				ev.Outcome = domain.OutcomeExhausted
			}
			record(r.Context(), opts.Stats, log, ev)

			h := w.Header()
			h.Set(HeaderDisplayLimit, formatInt(dec.DisplayLimit))
			if !viewer.Authenticated {
				h.Set(HeaderSearchesRemaining, formatInt(dec.Remaining))
				h.Set(HeaderSearchWarning, formatBool(dec.ShowWarning))
			}

			if !dec.Allowed {
				log.Debug("guest search blocked", zap.String("session", string(session)))
				writeJSON(w, opts.RejectStatus, limitError{
					Error:     "guest_search_limit_reached",
					Message:   "free searches used up for this session, sign in to keep searching",
					Remaining: 0,
					Limit:     gate.Config.GuestFreeSearches,
				})
				return
			}

			ctx := withState(r.Context(), requestState{session: session, viewer: viewer, decision: dec})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func record(ctx context.Context, stats domain.StatsStore, log *zap.Logger, ev domain.GateEvent) {
	if stats == nil {
		return
	}
	if err := stats.Record(ctx, ev); err != nil {
		log.Warn("gate stats record failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
