package inventory

import (
	"context"
	"errors"
	"fmt"

	"pos-backend/internal/apperror"
	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"gorm.io/gorm"
)

// Catalog reads and writes products and ingredients through a single gorm handle,
// either the pool or an open transaction.
type Catalog struct {
	db     *gorm.DB
	locked bool
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ForUpdate returns a catalog bound to tx whose reads take row locks.
func ForUpdate(tx *gorm.DB) *Catalog {
	return &Catalog{db: tx, locked: true}
}

func (c *Catalog) query(ctx context.Context) *gorm.DB {
	q := c.db.WithContext(ctx)
	if c.locked {
		q = database.ForUpdate(q)
	}
	return q
}

// Products returns the requested products keyed by ID. Missing IDs are simply absent.
func (c *Catalog) Products(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := c.query(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (c *Catalog) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	q := c.query(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Product
	if err := q.Order("name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return rows, nil
}

// Ingredients returns the whole catalog in ID order, the order name matching relies on.
func (c *Catalog) Ingredients(ctx context.Context) ([]models.Ingredient, error) {
	var rows []models.Ingredient
	if err := c.query(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	return rows, nil
}

func (c *Catalog) Ingredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := c.query(ctx).First(&ing, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf(fmt.Sprintf("ingredient %d", id), "not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load ingredient %d: %w", id, err)
	}
	return &ing, nil
}

// SaveStock persists both stock locations and the recomputed status.
func (c *Catalog) SaveStock(ctx context.Context, ing *models.Ingredient) error {
	ing.RecomputeStatus()
	err := c.db.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id = ?", ing.ID).
		Updates(map[string]any{
			"main_stock": ing.MainStock,
			"stock_room": ing.StockRoom,
			"status":     ing.Status,
		}).Error
	if err != nil {
		return fmt.Errorf("update ingredient %d: %w", ing.ID, err)
	}
	return nil
}

// DecrementProductStock lowers unit stock; the caller has already checked availability.
func (c *Catalog) DecrementProductStock(ctx context.Context, id uint, qty int) error {
	err := c.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty)).Error
	if err != nil {
		return fmt.Errorf("update product %d stock: %w", id, err)
	}
	return nil
}

func (c *Catalog) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := c.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (c *Catalog) CreateIngredient(ctx context.Context, ing *models.Ingredient) error {
	ing.RecomputeStatus()
	if err := c.db.WithContext(ctx).Create(ing).Error; err != nil {
		return fmt.Errorf("create ingredient: %w", err)
	}
	return nil
}
