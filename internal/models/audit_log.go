package models

import "time"

type AuditAction string

const (
	AuditActionSaleSettled   AuditAction = "sale.settled"
	AuditActionWasteRecorded AuditAction = "waste.recorded"
	AuditActionStockReceived AuditAction = "stock.received"
	AuditActionStockTransfer AuditAction = "stock.transferred"
	AuditActionStockAdjusted AuditAction = "stock.adjusted"
	AuditActionLedgerCleared AuditAction = "ledger.cleared"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// who
	UserName string `gorm:"size:100;index" json:"user_name"`

	// which entity ("sale", "ingredient", "wasted_log", ...)
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`
	Reference  string `gorm:"size:100" json:"reference"`

	Action   AuditAction `gorm:"size:30" json:"action"`
	Category string      `gorm:"size:30" json:"category"`
	Severity string      `gorm:"size:10" json:"severity"`

	Description string `gorm:"size:255" json:"description"`

	// before/after state (JSON)
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
