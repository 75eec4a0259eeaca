package waste

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/database"
	"pos-backend/internal/inventory"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Request struct {
	IngredientID uint
	Quantity     decimal.Decimal
	Reason       models.WasteReason
	Actor        string
}

type Recorder struct {
	db      *gorm.DB
	retries int
	audit   *audit.Publisher
	log     *zap.Logger
}

func NewRecorder(db *gorm.DB, retries int, pub *audit.Publisher, log *zap.Logger) *Recorder {
	return &Recorder{db: db, retries: retries, audit: pub, log: log.Named("waste")}
}

// Record takes quantity out of main stock and logs it as waste, atomically.
func (r *Recorder) Record(ctx context.Context, req Request) (*models.WastedLog, error) {
	if !req.Quantity.IsPositive() {
		return nil, apperror.Validationf("quantity", "must be greater than zero")
	}
	if strings.TrimSpace(string(req.Reason)) == "" {
		req.Reason = models.WasteManualOther
	}
	if !req.Reason.Valid() {
		return nil, apperror.Validationf("reason", "unknown waste reason %q", req.Reason)
	}
	if req.Actor == "" {
		req.Actor = "System"
	}

	var (
		wl     *models.WastedLog
		before decimal.Decimal
		after  models.Ingredient
	)
	err := database.InTx(ctx, r.db, r.retries, func(tx *gorm.DB) error {
		cat := inventory.ForUpdate(tx)
		ing, err := cat.Ingredient(ctx, req.IngredientID)
		if err != nil {
			return err
		}
		if req.Quantity.GreaterThan(ing.MainStock) {
			return apperror.Validationf("ingredient "+ing.Name,
				"cannot waste %s%s, only %s%s in main stock", req.Quantity, ing.Unit, ing.MainStock, ing.Unit)
		}

		wl = &models.WastedLog{
			IngredientID:   &ing.ID,
			IngredientName: ing.Name,
			Quantity:       req.Quantity,
			Unit:           ing.Unit,
			CostAtWaste:    ing.Cost.Mul(req.Quantity).Round(4),
			Reason:         req.Reason,
			UserName:       req.Actor,
			WastedAt:       time.Now(),
		}
		if err := tx.WithContext(ctx).Create(wl).Error; err != nil {
			return fmt.Errorf("create waste log: %w", err)
		}

		before = ing.MainStock
		ing.MainStock = ing.MainStock.Sub(req.Quantity)
		if err := cat.SaveStock(ctx, ing); err != nil {
			return err
		}

		entry := ledger.NewEntry(*ing, models.TxWaste, req.Quantity.Neg(), req.Actor,
			"Waste recorded: "+string(req.Reason), fmt.Sprintf("WasteLog-%d", wl.ID))
		if err := ledger.Append(ctx, tx, entry); err != nil {
			return err
		}
		after = *ing
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("waste recorded",
		zap.String("ingredient", wl.IngredientName),
		zap.Stringer("quantity", wl.Quantity),
		zap.String("reason", string(wl.Reason)))
	r.audit.Publish(ctx, audit.Event{
		Actor:    req.Actor,
		Action:   models.AuditActionWasteRecorded,
		Category: audit.CategoryInventory,
		Severity: audit.SeverityWarning,
		Description: fmt.Sprintf("%s recorded %s%s of %s as waste (%s); main stock now %s",
			req.Actor, wl.Quantity, wl.Unit, wl.IngredientName, wl.Reason, after.MainStock),
		EntityType: "wasted_log",
		EntityID:   wl.ID,
		Reference:  fmt.Sprintf("WasteLog-%d", wl.ID),
		Before:     map[string]decimal.Decimal{"main_stock": before},
		After:      map[string]decimal.Decimal{"main_stock": after.MainStock},
		OccurredAt: wl.WastedAt,
	})
	return wl, nil
}

type ListFilter struct {
	IngredientID *uint
	From, To     *time.Time
}

// List returns waste records newest first.
func List(ctx context.Context, db *gorm.DB, f ListFilter) ([]models.WastedLog, error) {
	q := db.WithContext(ctx).Model(&models.WastedLog{})
	if f.IngredientID != nil {
		q = q.Where("ingredient_id = ?", *f.IngredientID)
	}
	if f.From != nil {
		q = q.Where("wasted_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("wasted_at <= ?", *f.To)
	}
	var out []models.WastedLog
	if err := q.Order("wasted_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list waste: %w", err)
	}
	return out, nil
}

type Stats struct {
	Count      int                                    `json:"count"`
	TotalValue decimal.Decimal                        `json:"total_value"`
	ByReason   map[models.WasteReason]decimal.Decimal `json:"by_reason"`
}

func Summarize(logs []models.WastedLog) Stats {
	s := Stats{ByReason: map[models.WasteReason]decimal.Decimal{}}
	for _, l := range logs {
		s.Count++
		s.TotalValue = s.TotalValue.Add(l.CostAtWaste)
		s.ByReason[l.Reason] = s.ByReason[l.Reason].Add(l.CostAtWaste)
	}
	return s
}
