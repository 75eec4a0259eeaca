package inventory

import (
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Name     string             `json:"name"`
	Category string             `json:"category"`
	Price    float64            `json:"price"`
	Stock    int                `json:"stock"` // direct-stock products only
	Recipe   models.RecipeLines `json:"recipe"`
}

type UpdateProductRequest struct {
	Name     *string             `json:"name"`
	Category *string             `json:"category"`
	Price    *float64            `json:"price"`
	Stock    *int                `json:"stock"`
	Recipe   *models.RecipeLines `json:"recipe"`
	IsActive *bool               `json:"is_active"`
}

func checkRecipe(r models.RecipeLines) error {
	for _, l := range r {
		if l.Quantity.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "recipe quantities must not be negative")
		}
	}
	return nil
}

func nameTaken(db *gorm.DB, model any, name string, exceptID uint) bool {
	var n int64
	db.Model(model).Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).Count(&n)
	return n > 0
}

// GET /api/products?active=true
func ListProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := NewCatalog(db).ListProducts(c.UserContext(), c.QueryBool("active", false))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list products")
		}
		return c.JSON(products)
	}
}

// POST /api/admin/products
func CreateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.Price < 0 || body.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price and stock must not be negative")
		}
		if err := checkRecipe(body.Recipe); err != nil {
			return err
		}
		if nameTaken(db, &models.Product{}, body.Name, 0) {
			return fiber.NewError(fiber.StatusConflict, "a product with this name already exists")
		}

		p := models.Product{
			Name:     body.Name,
			Category: strings.TrimSpace(body.Category),
			Price:    body.Price,
			Stock:    body.Stock,
			Recipe:   body.Recipe,
			IsActive: true,
		}
		if err := NewCatalog(db).CreateProduct(c.UserContext(), &p); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create product")
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// editRetries bounds retries of catalog edits that lose a serialization race.
const editRetries = 3

// changes validates the request and returns only the columns it sets.
func (r UpdateProductRequest) changes(db *gorm.DB, id uint) (map[string]any, error) {
	updates := map[string]any{}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
		}
		if nameTaken(db, &models.Product{}, name, id) {
			return nil, fiber.NewError(fiber.StatusConflict, "a product with this name already exists")
		}
		updates["name"] = name
	}
	if r.Category != nil {
		updates["category"] = strings.TrimSpace(*r.Category)
	}
	if r.Price != nil {
		if *r.Price < 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
		}
		updates["price"] = *r.Price
	}
	if r.Stock != nil {
		if *r.Stock < 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "stock must not be negative")
		}
		updates["stock"] = *r.Stock
	}
	if r.Recipe != nil {
		if err := checkRecipe(*r.Recipe); err != nil {
			return nil, err
		}
		updates["recipe"] = *r.Recipe
	}
	if r.IsActive != nil {
		updates["is_active"] = *r.IsActive
	}
	return updates, nil
}

// PUT /api/admin/products/:id writes only the fields present in the body, under a
// row lock, so a concurrent sale's unit-stock decrement is never overwritten.
func UpdateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		updates, err := body.changes(db, uint(id))
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		var p models.Product
		err = database.InTx(ctx, db, editRetries, func(tx *gorm.DB) error {
			err := database.ForUpdate(tx.WithContext(ctx)).First(&p, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf(fmt.Sprintf("product %d", id), "not found")
			}
			if err != nil {
				return fmt.Errorf("load product %d: %w", id, err)
			}
			if len(updates) == 0 {
				return nil
			}
			if err := tx.WithContext(ctx).Model(&models.Product{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update product %d: %w", id, err)
			}
			return tx.WithContext(ctx).First(&p, "id = ?", id).Error
		})
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.JSON(p)
	}
}

// DELETE /api/admin/products/:id takes the product off sale. Sales keep referring to it.
func DeactivateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}
		res := db.WithContext(c.UserContext()).Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not deactivate product")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
