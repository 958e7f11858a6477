package infra

import (
	"context"
	"sync"
	"time"

	"entitlement-gateway/middleware/entitlement/domain"
)

// MemoryCounterStore guarda o contador de buscas de visitante por sessão em memória.
//
// Uma sessão sem atividade por mais de sessionTTL é considerada encerrada:
// o contador some (volta a 0). Indicado para uma única instância do gateway.
type MemoryCounterStore struct {
	mu           sync.Mutex
	entries      map[domain.SessionKey]*counterEntry
	sessionTTL   time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type counterEntry struct {
	count    int
	lastSeen time.Time
}

type CounterOption func(*MemoryCounterStore)

func WithSessionTTL(d time.Duration) CounterOption {
	return func(s *MemoryCounterStore) { s.sessionTTL = d }
}

func WithCounterCleanupEvery(d time.Duration) CounterOption {
	return func(s *MemoryCounterStore) { s.cleanupEvery = d }
}

func withClock(now func() time.Time) CounterOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func NewMemoryCounterStore(opts ...CounterOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries:      make(map[domain.SessionKey]*counterEntry),
		sessionTTL:   30 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryCounterStore) SessionTTL() time.Duration { return s.sessionTTL }

// Get implementa domain.CounterStore.
func (s *MemoryCounterStore) Get(_ context.Context, key domain.SessionKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.live(key)
	if ent == nil {
		return 0, nil
	}
	return ent.count, nil
}

// Incr implementa domain.CounterStore. Renova a sessão.
func (s *MemoryCounterStore) Incr(_ context.Context, key domain.SessionKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.live(key)
	if ent == nil {
		ent = &counterEntry{}
		s.entries[key] = ent
	}
	ent.count++
	ent.lastSeen = s.now()
	return ent.count, nil
}

// Consume implementa domain.CounterStore: checagem e incremento sob o mesmo lock.
func (s *MemoryCounterStore) Consume(_ context.Context, key domain.SessionKey, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.live(key)
	used := 0
	if ent != nil {
		used = ent.count
	}
	if used >= limit {
		return used, false, nil
	}
	if ent == nil {
		ent = &counterEntry{}
		s.entries[key] = ent
	}
	ent.count++
	ent.lastSeen = s.now()
	return ent.count, true, nil
}

func (s *MemoryCounterStore) Reset(_ context.Context, key domain.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// live retorna a entrada se a sessão ainda não expirou. Chamar com mu travado.
func (s *MemoryCounterStore) live(key domain.SessionKey) *counterEntry {
	ent, ok := s.entries[key]
	if !ok {
		return nil
	}
	if s.expired(ent) {
		delete(s.entries, key)
		return nil
	}
	return ent
}

func (s *MemoryCounterStore) expired(ent *counterEntry) bool {
	return s.sessionTTL > 0 && ent.lastSeen.Before(s.now().Add(-s.sessionTTL))
}

// Cleanup remove sessões expiradas.
func (s *MemoryCounterStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if s.expired(ent) {
			delete(s.entries, k)
		}
	}
}

// Len retorna o número de sessões com contador.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor inicia uma goroutine que limpa sessões expiradas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryCounterStore) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}
