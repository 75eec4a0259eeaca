package inventory

import (
	"fmt"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingredients start empty; stock arrives through /api/stock/receive so every unit is ledgered.
type CreateIngredientRequest struct {
	Name           string                `json:"name"`
	Category       string                `json:"category"`
	Unit           string                `json:"unit"`
	Reorder        decimal.Decimal       `json:"reorder"`
	Cost           decimal.Decimal       `json:"cost"`
	IngredientType models.IngredientType `json:"ingredient_type"`
}

type UpdateIngredientRequest struct {
	Name           *string                `json:"name"`
	Category       *string                `json:"category"`
	Unit           *string                `json:"unit"`
	Reorder        *decimal.Decimal       `json:"reorder"`
	Cost           *decimal.Decimal       `json:"cost"`
	IngredientType *models.IngredientType `json:"ingredient_type"`
}

func checkIngredientType(t models.IngredientType) error {
	if t != models.Perishable && t != models.NonPerishable {
		return fiber.NewError(fiber.StatusBadRequest, "ingredient_type must be perishable or non-perishable")
	}
	return nil
}

// GET /api/ingredients
func ListIngredientsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ings, err := NewCatalog(db).Ingredients(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list ingredients")
		}
		if status := c.Query("status"); status != "" {
			filtered := ings[:0]
			for _, ing := range ings {
				if string(ing.Status) == status {
					filtered = append(filtered, ing)
				}
			}
			ings = filtered
		}
		return c.JSON(ings)
	}
}

// POST /api/admin/ingredients
func CreateIngredientHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and unit are required")
		}
		if body.Reorder.IsNegative() || body.Cost.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "reorder and cost must not be negative")
		}
		if body.IngredientType == "" {
			body.IngredientType = models.NonPerishable
		}
		if err := checkIngredientType(body.IngredientType); err != nil {
			return err
		}
		if nameTaken(db, &models.Ingredient{}, body.Name, 0) {
			return fiber.NewError(fiber.StatusConflict, "an ingredient with this name already exists")
		}

		ing := models.Ingredient{
			Name:           body.Name,
			Category:       strings.TrimSpace(body.Category),
			Unit:           body.Unit,
			Reorder:        body.Reorder,
			Cost:           body.Cost,
			IngredientType: body.IngredientType,
		}
		if err := NewCatalog(db).CreateIngredient(c.UserContext(), &ing); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create ingredient")
		}
		return c.Status(fiber.StatusCreated).JSON(ing)
	}
}

// PUT /api/admin/ingredients/:id edits descriptive fields. Quantities are not editable
// here. The row is locked so a reorder change recomputes status from current stock.
func UpdateIngredientHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid ingredient id")
		}

		var body UpdateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		updates := map[string]any{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			if nameTaken(db, &models.Ingredient{}, name, uint(id)) {
				return fiber.NewError(fiber.StatusConflict, "an ingredient with this name already exists")
			}
			updates["name"] = name
		}
		if body.Category != nil {
			updates["category"] = strings.TrimSpace(*body.Category)
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit must not be empty")
			}
			updates["unit"] = unit
		}
		if body.Cost != nil {
			if body.Cost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "cost must not be negative")
			}
			updates["cost"] = *body.Cost
		}
		if body.IngredientType != nil {
			if err := checkIngredientType(*body.IngredientType); err != nil {
				return err
			}
			updates["ingredient_type"] = *body.IngredientType
		}
		if body.Reorder != nil && body.Reorder.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "reorder must not be negative")
		}

		ctx := c.UserContext()
		var ing *models.Ingredient
		err = database.InTx(ctx, db, editRetries, func(tx *gorm.DB) error {
			cat := ForUpdate(tx)
			var err error
			if ing, err = cat.Ingredient(ctx, uint(id)); err != nil {
				return err
			}
			if body.Reorder != nil {
				ing.Reorder = *body.Reorder
				ing.RecomputeStatus()
				updates["reorder"] = ing.Reorder
				updates["status"] = ing.Status
			}
			if len(updates) == 0 {
				return nil
			}
			if err := tx.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", ing.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update ingredient %d: %w", ing.ID, err)
			}
			return tx.WithContext(ctx).First(ing, "id = ?", ing.ID).Error
		})
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.JSON(ing)
	}
}
