package application

import "entitlement-gateway/middleware/entitlement/domain"

// DefaultFilterLimit é o máximo padrão de FilterProductsByAccess para quem não assina.
const DefaultFilterLimit = 10

// CanUserSearch: autenticado sempre pode (inclusive com remaining <= 0);
// visitante só com remaining > 0.
func CanUserSearch(authenticated bool, remaining int) bool {
	if authenticated {
		return true
	}
	return remaining > 0
}

// ShouldShowSearchLimitWarning é true apenas para visitante na última busca (0 < remaining <= 1).
func ShouldShowSearchLimitWarning(authenticated bool, remaining int) bool {
	return !authenticated && remaining > 0 && remaining <= 1
}

func HasAccessToCategory(category domain.Category, activeSubscription bool, unlocked domain.CategorySet) bool {
	if activeSubscription {
		return true
	}
	return unlocked.Has(category)
}

// ShouldRestrictContent restringe se exige assinatura e não há, ou se exige
// uma categoria (requiredCategory != "") que não está acessível.
func ShouldRestrictContent(requiresSubscription bool, requiredCategory domain.Category, activeSubscription bool, unlocked domain.CategorySet) bool {
	if requiresSubscription && !activeSubscription {
		return true
	}
	if requiredCategory != "" && !HasAccessToCategory(requiredCategory, activeSubscription, unlocked) {
		return true
	}
	return false
}

// FilterProductsByAccess devolve items intacto para assinantes; caso contrário
// os primeiros max elementos, na ordem original.
func FilterProductsByAccess[T any](items []T, activeSubscription bool, max int) []T {
	if activeSubscription {
		return items
	}
	return Take(items, max)
}

// Take retorna os primeiros n elementos (n <= 0 retorna vazio).
func Take[T any](items []T, n int) []T {
	if n <= 0 {
		return items[:0:0]
	}
	if n >= len(items) {
		return items
	}
	return items[:n:n]
}
