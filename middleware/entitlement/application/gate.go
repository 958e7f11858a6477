package application

import (
	"context"

	"entitlement-gateway/middleware/entitlement/domain"

	"go.uber.org/zap"
)

// Gate concentra as regras de cota de visitante e limites de exibição.
//
// Counter nil significa "sem meio de persistência": leituras retornam 0 e
// incrementos viram no-op. Throttle nil desliga a proteção contra rajadas.
type Gate struct {
	Config   domain.Config
	Counter  domain.CounterStore
	Throttle domain.Throttle
	Logger   *zap.Logger
}

func (g Gate) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// GuestSearchCount lê o contador persistido. Nunca falha.
func (g Gate) GuestSearchCount(ctx context.Context, key domain.SessionKey) int {
	if g.Counter == nil {
		return 0
	}
	n, err := g.Counter.Get(ctx, key)
	if err != nil {
		g.logger().Warn("guest counter read failed", zap.String("session", string(key)), zap.Error(err))
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

func (g Gate) RemainingGuestSearches(ctx context.Context, key domain.SessionKey) int {
	return remaining(g.Config.GuestFreeSearches, g.GuestSearchCount(ctx, key))
}

func (g Gate) HasGuestSearchesRemaining(ctx context.Context, key domain.SessionKey) bool {
	return g.RemainingGuestSearches(ctx, key) > 0
}

// IncrementGuestSearchCount soma 1 ao contador da sessão e retorna o novo valor.
// Sem store retorna 0; com erro, a leitura atual.
func (g Gate) IncrementGuestSearchCount(ctx context.Context, key domain.SessionKey) int {
	if g.Counter == nil {
		return 0
	}
	n, err := g.Counter.Incr(ctx, key)
	if err != nil {
		g.logger().Warn("guest counter increment failed", zap.String("session", string(key)), zap.Error(err))
		return g.GuestSearchCount(ctx, key)
	}
	return n
}

func (g Gate) ResetGuestSearchCount(ctx context.Context, key domain.SessionKey) {
	if g.Counter == nil {
		return
	}
	if err := g.Counter.Reset(ctx, key); err != nil {
		g.logger().Warn("guest counter reset failed", zap.String("session", string(key)), zap.Error(err))
	}
}

// ProductDisplayLimit aplica as regras de limite da configuração.
// Tier vazio equivale a free.
func (g Gate) ProductDisplayLimit(authenticated bool, tier domain.Tier) int {
	return g.Config.ProductDisplayLimit(authenticated, tier)
}

// DecideSearch decide uma busca e, para visitante permitido, consome uma unidade da cota.
//
// Checagem e incremento são uma única operação do store: buscas concorrentes da
// mesma sessão nunca passam do limite. O aviso é calculado sobre as buscas
// restantes depois desta.
func (g Gate) DecideSearch(ctx context.Context, key domain.SessionKey, v domain.Viewer) domain.SearchDecision {
	limit := g.ProductDisplayLimit(v.Authenticated, v.Tier)

	if v.Authenticated {
		return domain.SearchDecision{Allowed: true, Remaining: domain.Unlimited, DisplayLimit: limit}
	}

	used, ok := g.consume(ctx, key)
	if !ok {
		return domain.SearchDecision{Allowed: false, Remaining: 0, DisplayLimit: limit}
	}

	after := remaining(g.Config.GuestFreeSearches, used)
	return domain.SearchDecision{
		Allowed:      true,
		Remaining:    after,
		ShowWarning:  ShouldShowSearchLimitWarning(false, after),
		DisplayLimit: limit,
	}
}

// consume retorna (usadas, permitido). Sem store ou com erro, libera (fail-open).
func (g Gate) consume(ctx context.Context, key domain.SessionKey) (int, bool) {
	if g.Counter == nil {
		return 0, CanUserSearch(false, g.Config.GuestFreeSearches)
	}
	used, ok, err := g.Counter.Consume(ctx, key, g.Config.GuestFreeSearches)
	if err != nil {
		g.logger().Warn("guest search consume failed", zap.String("session", string(key)), zap.Error(err))
		return g.GuestSearchCount(ctx, key), true
	}
	return used, ok
}

// Allow consulta o throttle (se houver) para o cliente, no bucket da classe do viewer.
func (g Gate) Allow(client domain.ClientKey, v domain.Viewer) bool {
	if g.Throttle == nil {
		return true
	}
	return g.Throttle.Allow(client, domain.ThrottleClassOf(v))
}

// Snapshot retorna os entitlements atuais sem alterar o contador.
func (g Gate) Snapshot(ctx context.Context, key domain.SessionKey, v domain.Viewer) domain.Entitlements {
	tier := v.Tier
	if !v.Authenticated {
		tier = domain.TierGuest
	} else if tier == "" {
		tier = domain.TierFree
	}

	e := domain.Entitlements{
		Authenticated:      v.Authenticated,
		Tier:               tier,
		ActiveSubscription: v.ActiveSubscription,
		DisplayLimit:       g.ProductDisplayLimit(v.Authenticated, v.Tier),
		UnlockedCategories: v.UnlockedCategories.Sorted(),
	}
	if v.Authenticated {
		e.CanSearch = true
		e.SearchesRemaining = domain.Unlimited
		return e
	}

	e.SearchesUsed = g.GuestSearchCount(ctx, key)
	e.SearchesRemaining = remaining(g.Config.GuestFreeSearches, e.SearchesUsed)
	e.CanSearch = CanUserSearch(false, e.SearchesRemaining)
	e.ShowWarning = ShouldShowSearchLimitWarning(false, e.SearchesRemaining)
	return e
}

func remaining(limit, used int) int {
	if used < 0 {
		used = 0
	}
	if r := limit - used; r > 0 {
		return r
	}
	return 0
}
