package domain

import (
	"sort"
	"strings"
)

// Category é uma categoria de produto que pode ser desbloqueada individualmente
// (compra avulsa, sem assinatura completa).
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryHomeKitchen Category = "home-kitchen"
	CategoryBeauty      Category = "beauty"
	CategoryHealth      Category = "health"
	CategoryOutdoors    Category = "outdoors"
	CategoryBaby        Category = "baby"
	CategoryPets        Category = "pets"
	CategoryAutomotive  Category = "automotive"
)

var unlockable = map[Category]struct{}{
	CategoryElectronics: {},
	CategoryHomeKitchen: {},
	CategoryBeauty:      {},
	CategoryHealth:      {},
	CategoryOutdoors:    {},
	CategoryBaby:        {},
	CategoryPets:        {},
	CategoryAutomotive:  {},
}

func ParseCategory(s string) Category {
	return Category(strings.ToLower(strings.TrimSpace(s)))
}

// Unlockable indica se a categoria pertence ao conjunto fechado de categorias desbloqueáveis.
func (c Category) Unlockable() bool {
	_, ok := unlockable[c]
	return ok
}

// UnlockableCategories retorna o conjunto fechado, ordenado.
func UnlockableCategories() []Category {
	out := make([]Category, 0, len(unlockable))
	for c := range unlockable {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CategorySet é o conjunto de categorias desbloqueadas de um usuário.
// O conjunto nil é válido e vazio.
type CategorySet map[Category]struct{}

func NewCategorySet(cats ...Category) CategorySet {
	s := make(CategorySet, len(cats))
	for _, c := range cats {
		if c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Sorted retorna os elementos em ordem estável (útil para JSON/headers).
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
