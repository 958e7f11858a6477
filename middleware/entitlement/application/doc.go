// Package application contém os casos de uso do gate de entitlements.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Gate.DecideSearch(ctx, key, viewer) retorna uma SearchDecision
// (allow/deny + buscas restantes + aviso + limite de exibição).
//
// As funções de política são totais: falha de storage vira o valor padrão
// conservador (0, false ou o limite de visitante/free), nunca um erro.
package application
