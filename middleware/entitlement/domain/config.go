package domain

// Valores padrão usados quando a configuração está ausente ou inválida.
const (
	DefaultGuestFreeSearches           = 3
	DefaultGuestProductDisplayLimit    = 15
	DefaultFreeTierProductDisplayLimit = 20
	DefaultPaidTierProductDisplayLimit = 50
)

// Config é a configuração imutável do gate, montada uma vez no start do processo
// e passada por referência para quem constrói o gate.
//
// Invariante: todos os valores são inteiros >= 0.
type Config struct {
	GuestFreeSearches           int `yaml:"guest_free_searches" json:"guest_free_searches"`
	GuestProductDisplayLimit    int `yaml:"guest_product_display_limit" json:"guest_product_display_limit"`
	FreeTierProductDisplayLimit int `yaml:"free_tier_product_display_limit" json:"free_tier_product_display_limit"`
	PaidTierProductDisplayLimit int `yaml:"paid_tier_product_display_limit" json:"paid_tier_product_display_limit"`
}

func DefaultConfig() Config {
	return Config{
		GuestFreeSearches:           DefaultGuestFreeSearches,
		GuestProductDisplayLimit:    DefaultGuestProductDisplayLimit,
		FreeTierProductDisplayLimit: DefaultFreeTierProductDisplayLimit,
		PaidTierProductDisplayLimit: DefaultPaidTierProductDisplayLimit,
	}
}

// Normalize troca valores negativos pelo padrão correspondente.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.GuestFreeSearches < 0 {
		c.GuestFreeSearches = def.GuestFreeSearches
	}
	if c.GuestProductDisplayLimit < 0 {
		c.GuestProductDisplayLimit = def.GuestProductDisplayLimit
	}
	if c.FreeTierProductDisplayLimit < 0 {
		c.FreeTierProductDisplayLimit = def.FreeTierProductDisplayLimit
	}
	if c.PaidTierProductDisplayLimit < 0 {
		c.PaidTierProductDisplayLimit = def.PaidTierProductDisplayLimit
	}
	return c
}

// ProductDisplayLimit decide quantos resultados o visitante pode ver.
//
// Não autenticado usa o limite de visitante, qualquer que seja o tier informado.
// Tier desconhecido (ou vazio) de usuário autenticado cai no limite free:
// é fail-open, mantido por compatibilidade.
func (c Config) ProductDisplayLimit(authenticated bool, tier Tier) int {
	if !authenticated {
		return c.GuestProductDisplayLimit
	}
	if tier.Paid() {
		return c.PaidTierProductDisplayLimit
	}
	return c.FreeTierProductDisplayLimit
}
