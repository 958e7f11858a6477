package domain

// SearchDecision é o resultado do gate para uma busca.
type SearchDecision struct {
	Allowed bool
	// Remaining é o número de buscas de visitante restantes após esta decisão.
	// Para usuários autenticados é -1 (sem cota).
	Remaining    int
	ShowWarning  bool
	DisplayLimit int
}

// Entitlements é o retrato (sem efeito colateral) do que o visitante pode fazer agora.
type Entitlements struct {
	Authenticated      bool       `json:"authenticated"`
	Tier               Tier       `json:"tier"`
	ActiveSubscription bool       `json:"active_subscription"`
	CanSearch          bool       `json:"can_search"`
	SearchesUsed       int        `json:"searches_used"`
	SearchesRemaining  int        `json:"searches_remaining"`
	ShowWarning        bool       `json:"show_warning"`
	DisplayLimit       int        `json:"display_limit"`
	UnlockedCategories []Category `json:"unlocked_categories"`
}

// Unlimited marca Remaining de usuários autenticados.
const Unlimited = -1
