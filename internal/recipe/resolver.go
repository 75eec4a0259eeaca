package recipe

import (
	"strings"

	"pos-backend/internal/models"
)

// Resolution tells how a product consumes stock.
type Resolution struct {
	Direct bool
	Lines  []models.RecipeLine // usable lines only; empty when Direct
}

// Resolve classifies a product. Products without a usable recipe line sell from unit stock.
func Resolve(p models.Product) Resolution {
	var lines []models.RecipeLine
	for _, l := range p.Recipe {
		if l.Usable() {
			lines = append(lines, models.RecipeLine{Ingredient: strings.TrimSpace(l.Ingredient), Quantity: l.Quantity})
		}
	}
	if len(lines) == 0 {
		return Resolution{Direct: true}
	}
	return Resolution{Lines: lines}
}

// Matcher maps free-text recipe ingredient names onto catalog ingredients.
type Matcher struct {
	ingredients []models.Ingredient
	names       []string
	lower       []string
}

// NewMatcher keeps the given order; substring and tie-breaking follow it.
func NewMatcher(ingredients []models.Ingredient) *Matcher {
	m := &Matcher{
		ingredients: ingredients,
		names:       make([]string, len(ingredients)),
		lower:       make([]string, len(ingredients)),
	}
	for i, ing := range ingredients {
		m.names[i] = ing.Name
		m.lower[i] = strings.ToLower(strings.TrimSpace(ing.Name))
	}
	return m
}

// Match tries exact (case-insensitive), then substring in either direction,
// then approximate similarity at IngredientCutoff.
func (m *Matcher) Match(name string) (*models.Ingredient, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" || len(m.ingredients) == 0 {
		return nil, false
	}

	for i, n := range m.lower {
		if n == want {
			return &m.ingredients[i], true
		}
	}
	for i, n := range m.lower {
		if n == "" {
			continue
		}
		if strings.Contains(n, want) || strings.Contains(want, n) {
			return &m.ingredients[i], true
		}
	}
	if i := BestMatch(want, m.names, IngredientCutoff); i >= 0 {
		return &m.ingredients[i], true
	}
	return nil, false
}

func (m *Matcher) Ingredients() []models.Ingredient {
	return m.ingredients
}
