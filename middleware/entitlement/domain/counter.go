package domain

import "context"

// SessionKey identifica uma sessão de navegação (ex: cookie de sessão do visitante).
type SessionKey string

// GuestSearchCountKey é a chave fixa do contador de buscas do visitante.
// Stores compartilhados (ex: Redis) combinam com a SessionKey.
const GuestSearchCountKey = "guestSearchCount"

// CounterStore é a interface estreita para o contador de buscas por sessão.
//
// Get retorna 0 quando o contador não existe ou o valor persistido é inválido.
// Incr é atômico dentro de uma sessão e retorna o novo valor.
// Consume incrementa só se o contador estiver abaixo de limit, na mesma operação
// atômica; retorna o valor resultante e se houve incremento.
// Reset apaga o contador.
// Erros são de infraestrutura (rede, etc.); o gate trata como best-effort.
type CounterStore interface {
	Get(ctx context.Context, key SessionKey) (int, error)
	Incr(ctx context.Context, key SessionKey) (int, error)
	Consume(ctx context.Context, key SessionKey, limit int) (int, bool, error)
	Reset(ctx context.Context, key SessionKey) error
}
