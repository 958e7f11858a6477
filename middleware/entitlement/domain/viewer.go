package domain

// Viewer é a visão por request do visitante, fornecida pelo colaborador externo de auth.
type Viewer struct {
	Authenticated      bool
	Tier               Tier
	ActiveSubscription bool
	UnlockedCategories CategorySet
}

// Guest retorna um visitante anônimo.
func Guest() Viewer {
	return Viewer{Tier: TierGuest}
}
