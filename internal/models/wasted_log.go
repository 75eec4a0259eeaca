package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WasteReason string

const (
	WasteEndOfDay    WasteReason = "End-of-day spoilage"
	WasteManualSpoil WasteReason = "Manual Entry - Spoilage"
	WasteManualError WasteReason = "Manual Entry - Error"
	WasteManualOther WasteReason = "Manual Entry - Other"
)

func (r WasteReason) Valid() bool {
	switch r {
	case WasteEndOfDay, WasteManualSpoil, WasteManualError, WasteManualOther:
		return true
	}
	return false
}

// WastedLog: discarded ingredient quantity, valued at cost when recorded.
type WastedLog struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	IngredientID   *uint           `gorm:"index" json:"ingredient_id"`
	IngredientName string          `gorm:"size:100;not null" json:"ingredient_name"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Unit           string          `gorm:"size:20" json:"unit"`
	CostAtWaste    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_at_waste"` // total
	Reason         WasteReason     `gorm:"size:50;not null" json:"reason"`
	UserName       string          `gorm:"size:100" json:"user_name"`
	WastedAt       time.Time       `gorm:"index;not null" json:"wasted_at"`
}
