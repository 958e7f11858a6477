// Package domain define contratos e tipos de domínio do gate de entitlements
// (cota de buscas de visitante, limites de exibição por tier, desbloqueio de categorias).
//
// Este pacote não depende de net/http nem de implementações concretas de storage.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain
