package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type IngredientStatus string

const (
	StatusInStock    IngredientStatus = "In Stock"
	StatusLowStock   IngredientStatus = "Low Stock"
	StatusOutOfStock IngredientStatus = "Out of Stock"
)

type IngredientType string

const (
	Perishable    IngredientType = "perishable"
	NonPerishable IngredientType = "non-perishable"
)

type Ingredient struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Name           string           `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Category       string           `gorm:"size:50" json:"category"`
	MainStock      decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"main_stock"`
	StockRoom      decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"stock_room"`
	Unit           string           `gorm:"size:20;not null" json:"unit"` // g, ml, pcs...
	Reorder        decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"reorder"`
	Cost           decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"cost"` // per unit
	Status         IngredientStatus `gorm:"size:20;not null;default:'In Stock'" json:"status"`
	IngredientType IngredientType   `gorm:"size:20;not null;default:'non-perishable'" json:"ingredient_type"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// StatusFor derives the stock status from the two stock locations and the reorder threshold.
func StatusFor(main, room, reorder decimal.Decimal) IngredientStatus {
	switch {
	case !main.Add(room).IsPositive():
		return StatusOutOfStock
	case main.LessThan(reorder):
		return StatusLowStock
	default:
		return StatusInStock
	}
}

func (i *Ingredient) RecomputeStatus() {
	i.Status = StatusFor(i.MainStock, i.StockRoom, i.Reorder)
}
