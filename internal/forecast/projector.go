package forecast

import (
	"sort"
	"strings"

	"pos-backend/internal/models"
	"pos-backend/internal/recipe"

	"github.com/shopspring/decimal"
)

// Input is the demand to project: predicted sales per product name and period.
type Input struct {
	Demand      map[string][]float64 `json:"demand"`
	Granularity Granularity          `json:"period"`
	Horizon     int                  `json:"horizon"` // periods; 0 means the longest demand series
}

type Projection struct {
	IngredientID      uint              `json:"ingredient_id"`
	Ingredient        string            `json:"ingredient"`
	Unit              string            `json:"unit"`
	CurrentStock      decimal.Decimal   `json:"current_stock"`
	TotalUsage        decimal.Decimal   `json:"total_usage"`
	Trajectory        []decimal.Decimal `json:"trajectory"`
	PeriodsUntilEmpty *int              `json:"days_until_depleted"` // in days
}

// usage is one recipe line of a forecast product, already matched to an ingredient.
type usage struct {
	ingredientID uint
	perUnit      decimal.Decimal
	demand       []decimal.Decimal
}

// Project simulates main stock of every ingredient with stock left against the
// demand, period by period. It reads its arguments only.
func Project(in Input, ingredients []models.Ingredient, products []models.Product) []Projection {
	horizon := in.Horizon
	if horizon <= 0 {
		for _, series := range in.Demand {
			if len(series) > horizon {
				horizon = len(series)
			}
		}
	}

	matcher := recipe.NewMatcher(ingredients)
	names := make([]string, 0, len(in.Demand))
	for name := range in.Demand {
		names = append(names, name)
	}
	sort.Strings(names)

	demand := make(map[string][]decimal.Decimal, len(in.Demand))
	for name, series := range in.Demand {
		d := make([]decimal.Decimal, len(series))
		for i, v := range series {
			d[i] = decimal.NewFromFloat(v)
		}
		demand[name] = d
	}

	var usages []usage
	for _, name := range names {
		p, ok := ProductByName(products, name)
		if !ok {
			continue
		}
		res := recipe.Resolve(*p)
		if res.Direct {
			continue
		}
		for _, rl := range res.Lines {
			ing, ok := matcher.Match(rl.Ingredient)
			if !ok {
				continue
			}
			usages = append(usages, usage{ingredientID: ing.ID, perUnit: rl.Quantity, demand: demand[name]})
		}
	}

	days := in.Granularity.Days()
	out := make([]Projection, 0, len(ingredients))
	for _, ing := range ingredients {
		if !ing.MainStock.IsPositive() {
			continue
		}
		proj := Projection{
			IngredientID: ing.ID,
			Ingredient:   ing.Name,
			Unit:         ing.Unit,
			CurrentStock: ing.MainStock,
			Trajectory:   make([]decimal.Decimal, 0, horizon),
		}
		level := ing.MainStock
		empty := -1
		for period := 0; period < horizon; period++ {
			consumed := decimal.Zero
			for _, u := range usages {
				if u.ingredientID != ing.ID || period >= len(u.demand) {
					continue
				}
				consumed = consumed.Add(u.demand[period].Mul(u.perUnit))
			}
			proj.TotalUsage = proj.TotalUsage.Add(consumed)
			level = level.Sub(consumed)
			proj.Trajectory = append(proj.Trajectory, level)
			if empty < 0 && !level.IsPositive() {
				empty = period
			}
		}
		if proj.TotalUsage.IsPositive() && empty >= 0 {
			d := (empty + 1) * days
			proj.PeriodsUntilEmpty = &d
		}
		out = append(out, proj)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Ingredient) < strings.ToLower(out[j].Ingredient)
	})
	return out
}

// ProductByName finds a product by exact name ignoring case, then by substring.
func ProductByName(products []models.Product, name string) (*models.Product, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil, false
	}
	for i := range products {
		if strings.ToLower(products[i].Name) == want {
			return &products[i], true
		}
	}
	for i := range products {
		if strings.Contains(strings.ToLower(products[i].Name), want) {
			return &products[i], true
		}
	}
	return nil, false
}
