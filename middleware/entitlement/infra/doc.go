// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryCounterStore: contador de buscas por sessão em memória, com TTL de sessão e janitor
//   - RedisCounterStore: o mesmo contador compartilhado entre réplicas do gateway (go-redis)
//   - Throttle: token bucket por cliente e classe (visitante/logado) usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: estatísticas das decisões do gate
package infra
