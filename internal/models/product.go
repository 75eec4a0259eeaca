package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// RecipeLine: ingredient consumed per unit sold
type RecipeLine struct {
	Ingredient string          `json:"ingredient"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Usable reports whether the line contributes to stock consumption.
func (l RecipeLine) Usable() bool {
	return strings.TrimSpace(l.Ingredient) != "" && l.Quantity.IsPositive()
}

type RecipeLines []RecipeLine

func (r RecipeLines) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RecipeLines) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("recipe: unsupported column type")
	}
	if len(raw) == 0 {
		*r = nil
		return nil
	}
	return json.Unmarshal(raw, r)
}

func (RecipeLines) GormDataType() string { return "json" }

func (RecipeLines) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

type Product struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Category  string      `gorm:"size:50" json:"category"`
	Price     float64     `gorm:"not null;default:0" json:"price"`
	Stock     int         `gorm:"not null;default:0" json:"stock"` // direct-stock products only
	Recipe    RecipeLines `json:"recipe"`
	IsActive  bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsRecipe reports whether sales of this product draw on ingredients instead of unit stock.
func (p Product) IsRecipe() bool {
	for _, l := range p.Recipe {
		if l.Usable() {
			return true
		}
	}
	return false
}
