package forecast

import (
	"context"
	"strings"
	"time"

	"pos-backend/internal/recipe"
)

// ArticlePredictor renames products to the article names models were trained on
// before delegating. Products without an article have no forecast.
type ArticlePredictor struct {
	Next     Predictor
	Articles []string
	Mapping  map[string]string // explicit product → article overrides
}

// Article resolves a product name: explicit mapping, exact match ignoring case,
// similarity at recipe.ArticleCutoff, then substring.
func (a ArticlePredictor) Article(product string) (string, bool) {
	if art, ok := a.Mapping[product]; ok {
		return art, true
	}
	want := strings.ToLower(strings.TrimSpace(product))
	for _, art := range a.Articles {
		if strings.ToLower(art) == want {
			return art, true
		}
	}
	if i := recipe.BestMatch(product, a.Articles, recipe.ArticleCutoff); i >= 0 {
		return a.Articles[i], true
	}
	for _, art := range a.Articles {
		l := strings.ToLower(art)
		if strings.Contains(l, want) || strings.Contains(want, l) {
			return art, true
		}
	}
	return "", false
}

func (a ArticlePredictor) Predict(ctx context.Context, product string, days int, start time.Time) ([]Prediction, error) {
	art, ok := a.Article(product)
	if !ok {
		return nil, ErrNoForecast
	}
	return a.Next.Predict(ctx, art, days, start)
}
