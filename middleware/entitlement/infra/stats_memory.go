package infra

import (
	"context"
	"sync"

	"entitlement-gateway/middleware/entitlement/domain"
)

type Counters struct {
	Allowed   int64 `json:"allowed"`
	Exhausted int64 `json:"exhausted"`
	Throttled int64 `json:"throttled"`
	Warnings  int64 `json:"warnings"`
}

func (c *Counters) add(ev domain.GateEvent) {
	switch ev.Outcome {
	case domain.OutcomeAllowed:
		c.Allowed++
	case domain.OutcomeExhausted:
		c.Exhausted++
	case domain.OutcomeThrottled:
		c.Throttled++
	}
	if ev.Warning {
		c.Warnings++
	}
}

// StatsSnapshot é a visão agregada usada pelo painel admin.
type StatsSnapshot struct {
	Total  Counters            `json:"total"`
	ByTier map[string]Counters `json:"by_tier"`
}

// MemoryStatsStore é uma implementação simples em memória.
// Não faz expiração; útil para uma instância e para testes.
type MemoryStatsStore struct {
	mu     sync.Mutex
	total  Counters
	byTier map[string]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{byTier: make(map[string]Counters)}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.GateEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)
	tier := tierLabel(ev)
	c := s.byTier[tier]
	c.add(ev)
	s.byTier[tier] = c
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := StatsSnapshot{Total: s.total, ByTier: make(map[string]Counters, len(s.byTier))}
	for k, v := range s.byTier {
		out.ByTier[k] = v
	}
	return out
}

// tierLabel agrupa visitantes em "guest" e limita tiers desconhecidos a "other".
func tierLabel(ev domain.GateEvent) string {
	if !ev.Authenticated {
		return string(domain.TierGuest)
	}
	if ev.Tier == "" {
		return string(domain.TierFree)
	}
	if !ev.Tier.Known() {
		return "other"
	}
	return string(ev.Tier)
}
