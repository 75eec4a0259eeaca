package forecast

import (
	"context"
	"fmt"

	"pos-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Snapshot reads the catalog without locks. Projection tolerates slightly stale
// stock, so these queries stay outside any transaction.
type Snapshot struct {
	db *sqlx.DB
}

// NewSnapshot shares gorm's connection pool.
func NewSnapshot(db *gorm.DB) (*Snapshot, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	driver := db.Dialector.Name()
	if driver == "sqlite" {
		driver = "sqlite3"
	}
	return &Snapshot{db: sqlx.NewDb(sqlDB, driver)}, nil
}

type ingredientRow struct {
	ID        uint            `db:"id"`
	Name      string          `db:"name"`
	MainStock decimal.Decimal `db:"main_stock"`
	StockRoom decimal.Decimal `db:"stock_room"`
	Unit      string          `db:"unit"`
}

type productRow struct {
	ID       uint               `db:"id"`
	Name     string             `db:"name"`
	Price    float64            `db:"price"`
	Stock    int                `db:"stock"`
	Recipe   models.RecipeLines `db:"recipe"`
	IsActive bool               `db:"is_active"`
}

// Ingredients returns the catalog in ID order.
func (s *Snapshot) Ingredients(ctx context.Context) ([]models.Ingredient, error) {
	var rows []ingredientRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, main_stock, stock_room, unit FROM ingredients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("snapshot ingredients: %w", err)
	}
	out := make([]models.Ingredient, len(rows))
	for i, r := range rows {
		out[i] = models.Ingredient{ID: r.ID, Name: r.Name, MainStock: r.MainStock, StockRoom: r.StockRoom, Unit: r.Unit}
	}
	return out, nil
}

// ActiveProducts returns products open for sale in ID order.
func (s *Snapshot) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT id, name, price, stock, recipe, is_active FROM products WHERE is_active = ? ORDER BY id`), true)
	if err != nil {
		return nil, fmt.Errorf("snapshot products: %w", err)
	}
	out := make([]models.Product, len(rows))
	for i, r := range rows {
		out[i] = models.Product{ID: r.ID, Name: r.Name, Price: r.Price, Stock: r.Stock, Recipe: r.Recipe, IsActive: r.IsActive}
	}
	return out, nil
}
