// Package entitlement fornece adapters HTTP (net/http) para o gate de entitlements.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (tier, categoria, config, contador), sem net/http
//   - application: casos de uso (cota de visitante, limite de exibição, acesso a categoria)
//   - infra: implementações concretas (contador em memória/Redis, throttle, estatísticas)
//   - config: leitura da configuração (ambiente + YAML opcional)
//   - entitlement (este pacote): middleware de busca, pós-processamento da resposta,
//     handlers de status/reset/estatísticas, extração de sessão e de viewer
//
// Fluxo no gateway para uma busca:
//
//  1. Throttle por cliente (IP, rede /64, header ou XFF) e classe do viewer: 429 se estourar
//  2. Resolve o viewer (headers do proxy de auth) e a sessão (cookie guest_session)
//  3. Chama Gate.DecideSearch; visitante sem cota recebe 402 com JSON
//  4. Se permitido, chama o próximo handler (ex: reverse proxy para a API de busca)
//     e LimitProducts corta a lista de produtos no limite do tier
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como GUEST_FREE_SEARCHES, GUEST_PRODUCT_DISPLAY_LIMIT, REDIS_ADDR e SESSION_TTL.
package entitlement
