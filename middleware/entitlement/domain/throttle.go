package domain

// ClientKey identifica o cliente de rede por trás das sessões (IP, rede /64 ou chave de API).
//
// Quem descarta o cookie ganha uma sessão nova, mas continua com a mesma ClientKey.
type ClientKey string

// ThrottleClass separa os buckets do throttle: visitante e usuário logado têm ritmos próprios.
type ThrottleClass string

const (
	ThrottleGuest  ThrottleClass = "guest"
	ThrottleMember ThrottleClass = "member"
)

// ThrottleClassOf retorna a classe de throttle do viewer.
func ThrottleClassOf(v Viewer) ThrottleClass {
	if v.Authenticated {
		return ThrottleMember
	}
	return ThrottleGuest
}

// Throttle decide se uma busca é permitida agora (proteção contra rajadas, antes da cota).
type Throttle interface {
	Allow(client ClientKey, class ThrottleClass) bool
}
