package domain

import (
	"context"
	"time"
)

// Outcome é o desfecho de uma decisão de busca.
type Outcome string

const (
	OutcomeAllowed   Outcome = "allowed"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeThrottled Outcome = "throttled"
)

// GateEvent representa um evento de decisão do gate.
//
// Session só é gravada por stores que pedem (alta cardinalidade).
type GateEvent struct {
	Session       SessionKey
	Outcome       Outcome
	Authenticated bool
	Tier          Tier
	Warning       bool
	At            time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do gate.
//
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev GateEvent) error
}
