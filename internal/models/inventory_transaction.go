package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxStockIn        TransactionType = "STOCK_IN"
	TxStockOut       TransactionType = "STOCK_OUT"
	TxTransferToMain TransactionType = "TRANSFER_TO_MAIN"
	TxTransferToRoom TransactionType = "TRANSFER_TO_ROOM"
	TxWaste          TransactionType = "WASTE"
	TxAdjustment     TransactionType = "ADJUSTMENT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxStockIn, TxStockOut, TxTransferToMain, TxTransferToRoom, TxWaste, TxAdjustment:
		return true
	}
	return false
}

type StockLocation string

const (
	LocationMain StockLocation = "main"
	LocationRoom StockLocation = "room"
)

// InventoryTransaction: append-only ledger row. Quantities after the movement are snapshotted.
type InventoryTransaction struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Weak reference; the name snapshot survives ingredient deletion.
	IngredientID   *uint  `gorm:"index:idx_inv_tx_ingredient_created,priority:1" json:"ingredient_id"`
	IngredientName string `gorm:"size:100;not null" json:"ingredient_name"`

	TransactionType TransactionType `gorm:"size:20;not null;index:idx_inv_tx_type_created,priority:1" json:"transaction_type"`
	Location        StockLocation   `gorm:"size:10" json:"location,omitempty"` // STOCK_IN / ADJUSTMENT

	// Signed: negative for stock leaving main (sale, waste, downward adjustment).
	// Transfers carry the positive amount moved.
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Unit        string          `gorm:"size:20" json:"unit"`
	CostPerUnit decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cost_per_unit"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_cost"`

	MainStockAfter decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"main_stock_after"`
	StockRoomAfter decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"stock_room_after"`

	Notes     string    `gorm:"size:500" json:"notes"`
	Reference string    `gorm:"size:100;index" json:"reference"`
	UserName  string    `gorm:"size:100" json:"user_name"`
	CreatedAt time.Time `gorm:"index;index:idx_inv_tx_ingredient_created,priority:2;index:idx_inv_tx_type_created,priority:2" json:"created_at"`
}
