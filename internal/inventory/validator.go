package inventory

import (
	"context"
	"fmt"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"
	"pos-backend/internal/recipe"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// DirectRequirement: units taken from a product's own stock counter.
type DirectRequirement struct {
	Product  models.Product
	Quantity int
}

// IngredientRequirement: main stock an ingredient must give up, summed over the cart.
type IngredientRequirement struct {
	Ingredient models.Ingredient
	Quantity   decimal.Decimal
	Products   []string
}

// Requirements lists what a cart consumes, in order of first appearance.
type Requirements struct {
	Lines       []CartLine
	Products    map[uint]models.Product
	Direct      []DirectRequirement
	Ingredients []IngredientRequirement
}

func productEntity(id uint) string { return fmt.Sprintf("product %d", id) }

func ingredientEntity(name string) string { return "ingredient " + name }

// Check expands cart lines into stock requirements and verifies them against the
// given snapshot. It fails on the first problem; no partial result is returned.
func Check(cart []CartLine, products map[uint]models.Product, matcher *recipe.Matcher) (*Requirements, error) {
	if len(cart) == 0 {
		return nil, apperror.Validationf("cart", "no lines")
	}

	req := &Requirements{Lines: cart, Products: products}
	directIdx := map[uint]int{}
	ingIdx := map[uint]int{}

	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, apperror.Validationf(productEntity(line.ProductID), "quantity must be positive, got %d", line.Quantity)
		}
		p, ok := products[line.ProductID]
		if !ok {
			return nil, apperror.Validationf(productEntity(line.ProductID), "unknown product")
		}
		if !p.IsActive {
			return nil, apperror.Validationf("product "+p.Name, "not available for sale")
		}

		res := recipe.Resolve(p)
		if res.Direct {
			if i, seen := directIdx[p.ID]; seen {
				req.Direct[i].Quantity += line.Quantity
				continue
			}
			directIdx[p.ID] = len(req.Direct)
			req.Direct = append(req.Direct, DirectRequirement{Product: p, Quantity: line.Quantity})
			continue
		}

		for _, rl := range res.Lines {
			ing, ok := matcher.Match(rl.Ingredient)
			if !ok {
				return nil, apperror.Validationf(ingredientEntity(rl.Ingredient), "no catalog ingredient matches recipe of %s", p.Name)
			}
			need := rl.Quantity.Mul(decimal.NewFromInt(int64(line.Quantity)))
			if i, seen := ingIdx[ing.ID]; seen {
				r := &req.Ingredients[i]
				r.Quantity = r.Quantity.Add(need)
				r.Products = appendUnique(r.Products, p.Name)
				continue
			}
			ingIdx[ing.ID] = len(req.Ingredients)
			req.Ingredients = append(req.Ingredients, IngredientRequirement{
				Ingredient: *ing,
				Quantity:   need,
				Products:   []string{p.Name},
			})
		}
	}

	for _, d := range req.Direct {
		if d.Product.Stock < d.Quantity {
			return nil, apperror.Validationf("product "+d.Product.Name, "insufficient stock: need %d, have %d", d.Quantity, d.Product.Stock)
		}
	}
	for _, r := range req.Ingredients {
		if r.Ingredient.MainStock.LessThan(r.Quantity) {
			return nil, apperror.Validationf(ingredientEntity(r.Ingredient.Name), "insufficient stock: need %s %s, have %s", r.Quantity, r.Ingredient.Unit, r.Ingredient.MainStock)
		}
	}
	return req, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// Validate loads the cart's products and the ingredient catalog through cat and runs
// Check. A catalog from ForUpdate holds row locks until the surrounding transaction ends.
func Validate(ctx context.Context, cat *Catalog, cart []CartLine) (*Requirements, error) {
	ids := make([]uint, 0, len(cart))
	for _, l := range cart {
		ids = append(ids, l.ProductID)
	}
	products, err := cat.Products(ctx, ids)
	if err != nil {
		return nil, err
	}

	needsIngredients := false
	for _, p := range products {
		if p.IsRecipe() {
			needsIngredients = true
			break
		}
	}
	var ingredients []models.Ingredient
	if needsIngredients {
		if ingredients, err = cat.Ingredients(ctx); err != nil {
			return nil, err
		}
	}
	return Check(cart, products, recipe.NewMatcher(ingredients))
}
