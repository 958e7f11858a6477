package domain

import "strings"

// Tier é o nível de assinatura informado pelo colaborador externo de auth/billing.
type Tier string

const (
	TierGuest      Tier = "guest"
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// ParseTier normaliza o valor recebido (trim + lower). Strings desconhecidas
// são preservadas: quem decide o fallback é a regra de limite.
func ParseTier(s string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(s)))
}

// Paid indica os tiers pagos (pro, premium, enterprise).
func (t Tier) Paid() bool {
	switch t {
	case TierPro, TierPremium, TierEnterprise:
		return true
	default:
		return false
	}
}

// Known indica se o tier pertence ao conjunto conhecido.
func (t Tier) Known() bool {
	return t == TierGuest || t == TierFree || t.Paid()
}
