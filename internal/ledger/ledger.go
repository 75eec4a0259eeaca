package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Entry = models.InventoryTransaction

// NewEntry snapshots ing after the movement has been applied to it.
func NewEntry(ing models.Ingredient, kind models.TransactionType, qty decimal.Decimal, actor, notes, reference string) *Entry {
	id := ing.ID
	return &Entry{
		IngredientID:    &id,
		IngredientName:  ing.Name,
		TransactionType: kind,
		Quantity:        qty,
		Unit:            ing.Unit,
		CostPerUnit:     ing.Cost,
		MainStockAfter:  ing.MainStock,
		StockRoomAfter:  ing.StockRoom,
		Notes:           notes,
		Reference:       reference,
		UserName:        actor,
	}
}

// At sets the location for STOCK_IN and ADJUSTMENT entries.
func At(e *Entry, loc models.StockLocation) *Entry {
	e.Location = loc
	return e
}

// Append is the only write path into the ledger. tx must be the transaction that
// applied the movement the entry documents.
func Append(ctx context.Context, tx *gorm.DB, e *Entry) error {
	if e.ID != 0 {
		return errors.New("ledger: entry already appended")
	}
	if !e.TransactionType.Valid() {
		return fmt.Errorf("ledger: unknown transaction type %q", e.TransactionType)
	}
	if strings.TrimSpace(e.IngredientName) == "" {
		return errors.New("ledger: ingredient name is required")
	}
	if e.UserName == "" {
		e.UserName = "System"
	}
	e.TotalCost = e.Quantity.Abs().Mul(e.CostPerUnit).Round(4)
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

type Filter struct {
	IngredientID *uint
	Kind         models.TransactionType
	From, To     *time.Time
	Limit        int
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.IngredientID != nil {
		q = q.Where("ingredient_id = ?", *f.IngredientID)
	}
	if f.Kind != "" {
		q = q.Where("transaction_type = ?", f.Kind)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	return q
}

// Query returns matching entries newest first.
func Query(ctx context.Context, db *gorm.DB, f Filter) ([]Entry, error) {
	q := f.apply(db.WithContext(ctx).Model(&Entry{})).Order("created_at DESC").Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []Entry
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	return out, nil
}

// History returns one ingredient's entries in replay order.
func History(ctx context.Context, db *gorm.DB, ingredientID uint) ([]Entry, error) {
	var out []Entry
	err := db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load ledger history: %w", err)
	}
	return out, nil
}

// ClearAll removes every entry and reports how many were deleted.
func ClearAll(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear ledger: %w", res.Error)
	}
	return res.RowsAffected, nil
}
