package infra

import (
	"sync"
	"time"

	"entitlement-gateway/middleware/entitlement/domain"

	"golang.org/x/time/rate"
)

// ThrottleRate é o ritmo sustentado (buscas/s) e a rajada de um bucket.
type ThrottleRate struct {
	RPS   float64
	Burst int
}

func (r ThrottleRate) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(r.RPS), r.Burst)
}

type bucketKey struct {
	class  domain.ThrottleClass
	client domain.ClientKey
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Throttle limita rajadas de busca por cliente, com um ritmo para visitantes
// e outro para usuários logados. Implementa domain.Throttle.
//
// O bucket do visitante é do cliente, não da sessão: trocar de cookie não zera o ritmo.
type Throttle struct {
	mu      sync.Mutex
	buckets map[bucketKey]*bucket
	rates   map[domain.ThrottleClass]ThrottleRate

	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type ThrottleOption func(*Throttle)

// WithMemberRate define o ritmo dos usuários logados (padrão: o mesmo dos visitantes).
func WithMemberRate(r ThrottleRate) ThrottleOption {
	return func(t *Throttle) { t.rates[domain.ThrottleMember] = r }
}

func WithThrottleIdleTTL(d time.Duration) ThrottleOption {
	return func(t *Throttle) { t.idleTTL = d }
}

func WithThrottleCleanupEvery(d time.Duration) ThrottleOption {
	return func(t *Throttle) { t.cleanupEvery = d }
}

func withThrottleClock(now func() time.Time) ThrottleOption {
	return func(t *Throttle) { t.now = now }
}

func NewThrottle(guest ThrottleRate, opts ...ThrottleOption) *Throttle {
	t := &Throttle{
		buckets: make(map[bucketKey]*bucket),
		rates: map[domain.ThrottleClass]ThrottleRate{
			domain.ThrottleGuest:  guest,
			domain.ThrottleMember: guest,
		},
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Rate retorna o ritmo configurado para a classe. Classe desconhecida usa o de visitante.
func (t *Throttle) Rate(class domain.ThrottleClass) ThrottleRate {
	if r, ok := t.rates[class]; ok {
		return r
	}
	return t.rates[domain.ThrottleGuest]
}

func (t *Throttle) Allow(client domain.ClientKey, class domain.ThrottleClass) bool {
	now := t.now()
	k := bucketKey{class: class, client: client}

	t.mu.Lock()
	b, ok := t.buckets[k]
	if !ok {
		b = &bucket{lim: t.Rate(class).limiter()}
		t.buckets[k] = b
	}
	b.lastSeen = now
	t.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// Cleanup descarta buckets ociosos há mais de idleTTL. Um bucket ocioso já está
// cheio de novo, então recriá-lo depois não muda o resultado.
func (t *Throttle) Cleanup() {
	cutoff := t.now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()

	for k, b := range t.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(t.buckets, k)
		}
	}
}

// Len retorna o número de buckets vivos.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

func (t *Throttle) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, t.cleanupEvery, t.Cleanup)
}
