package stockroom

import (
	"context"
	"fmt"

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

// Direction of a transfer between the two stock locations.
type Direction string

const (
	ToMain Direction = "to_main"
	ToRoom Direction = "to_room"
)

// Movement is the outcome of one stock operation. Entry is nil when nothing changed.
type Movement struct {
	Ingredient models.Ingredient `json:"ingredient"`
	Entry      *ledger.Entry     `json:"entry,omitempty"`
}

type Service struct {
	db      *gorm.DB
	retries int
	audit   *audit.Publisher
	log     *zap.Logger
}

func NewService(db *gorm.DB, retries int, pub *audit.Publisher, log *zap.Logger) *Service {
	return &Service{db: db, retries: retries, audit: pub, log: log.Named("stockroom")}
}

// change mutates the locked ingredient and returns the ledger entry documenting it,
// or nil when the call is a no-op.
type change func(ing *models.Ingredient) (*ledger.Entry, error)

func (s *Service) apply(ctx context.Context, id uint, fn change) (*Movement, models.Ingredient, error) {
	var (
		before models.Ingredient
		mv     Movement
	)
	err := database.InTx(ctx, s.db, s.retries, func(tx *gorm.DB) error {
		cat := inventory.ForUpdate(tx)
		ing, err := cat.Ingredient(ctx, id)
		if err != nil {
			return err
		}
		before = *ing

		entry, err := fn(ing)
		if err != nil {
			return err
		}
		if entry == nil {
			mv = Movement{Ingredient: *ing}
			return nil
		}
		if err := cat.SaveStock(ctx, ing); err != nil {
			return err
		}
		if err := ledger.Append(ctx, tx, entry); err != nil {
			return err
		}
		mv = Movement{Ingredient: *ing, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, before, err
	}
	return &mv, before, nil
}

func (s *Service) publish(ctx context.Context, action models.AuditAction, before models.Ingredient, mv *Movement) {
	if mv.Entry == nil {
		return
	}
	after := mv.Ingredient
	s.log.Info("stock moved",
		zap.String("ingredient", after.Name),
		zap.String("type", string(mv.Entry.TransactionType)),
		zap.Stringer("quantity", mv.Entry.Quantity))
	s.audit.Publish(ctx, audit.Event{
		Actor:       mv.Entry.UserName,
		Action:      action,
		Category:    audit.CategoryInventory,
		Description: fmt.Sprintf("%s: %s", after.Name, mv.Entry.Notes),
		EntityType:  "ingredient",
		EntityID:    after.ID,
		Reference:   mv.Entry.Reference,
		Before:      map[string]decimal.Decimal{"main_stock": before.MainStock, "stock_room": before.StockRoom},
		After:       map[string]decimal.Decimal{"main_stock": after.MainStock, "stock_room": after.StockRoom},
		OccurredAt:  mv.Entry.CreatedAt,
	})
}

func checkLocation(loc models.StockLocation) error {
	if loc != models.LocationMain && loc != models.LocationRoom {
		return apperror.Validationf("location", "must be %q or %q, got %q", models.LocationMain, models.LocationRoom, loc)
	}
	return nil
}

func locationLabel(loc models.StockLocation) string {
	if loc == models.LocationRoom {
		return "stock room"
	}
	return "main stock"
}

// Receive books a delivery into one location.
func (s *Service) Receive(ctx context.Context, id uint, loc models.StockLocation, qty decimal.Decimal, actor, note string) (*Movement, error) {
	if !qty.IsPositive() {
		return nil, apperror.Validationf("quantity", "must be greater than zero")
	}
	if loc == "" {
		loc = models.LocationMain
	}
	if err := checkLocation(loc); err != nil {
		return nil, err
	}

	mv, before, err := s.apply(ctx, id, func(ing *models.Ingredient) (*ledger.Entry, error) {
		if loc == models.LocationRoom {
			ing.StockRoom = ing.StockRoom.Add(qty)
		} else {
			ing.MainStock = ing.MainStock.Add(qty)
		}
		if note == "" {
			note = fmt.Sprintf("Added %s%s to %s", qty, ing.Unit, locationLabel(loc))
		}
		return ledger.At(ledger.NewEntry(*ing, models.TxStockIn, qty, actor, note, ""), loc), nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.AuditActionStockReceived, before, mv)
	return mv, nil
}

// Transfer moves qty between the stock room and main stock. The entry quantity is
// the positive amount moved.
func (s *Service) Transfer(ctx context.Context, id uint, dir Direction, qty decimal.Decimal, actor string) (*Movement, error) {
	if !qty.IsPositive() {
		return nil, apperror.Validationf("quantity", "must be greater than zero")
	}
	if dir != ToMain && dir != ToRoom {
		return nil, apperror.Validationf("direction", "must be %q or %q, got %q", ToMain, ToRoom, dir)
	}

	mv, before, err := s.apply(ctx, id, func(ing *models.Ingredient) (*ledger.Entry, error) {
		var (
			kind models.TransactionType
			note string
		)
		switch dir {
		case ToMain:
			if qty.GreaterThan(ing.StockRoom) {
				return nil, apperror.Validationf("ingredient "+ing.Name, "cannot move %s%s, only %s%s in stock room", qty, ing.Unit, ing.StockRoom, ing.Unit)
			}
			ing.MainStock = ing.MainStock.Add(qty)
			ing.StockRoom = ing.StockRoom.Sub(qty)
			kind = models.TxTransferToMain
			note = fmt.Sprintf("Transferred %s%s from stock room to main stock", qty, ing.Unit)
		case ToRoom:
			if qty.GreaterThan(ing.MainStock) {
				return nil, apperror.Validationf("ingredient "+ing.Name, "cannot move %s%s, only %s%s in main stock", qty, ing.Unit, ing.MainStock, ing.Unit)
			}
			ing.MainStock = ing.MainStock.Sub(qty)
			ing.StockRoom = ing.StockRoom.Add(qty)
			kind = models.TxTransferToRoom
			note = fmt.Sprintf("Transferred %s%s from main stock to stock room", qty, ing.Unit)
		}
		return ledger.NewEntry(*ing, kind, qty, actor, note, ""), nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.AuditActionStockTransfer, before, mv)
	return mv, nil
}

// Adjust sets one location to an absolute quantity after a count. Increases are
// booked as STOCK_IN, decreases as ADJUSTMENT with a negative quantity.
func (s *Service) Adjust(ctx context.Context, id uint, loc models.StockLocation, newQty decimal.Decimal, actor, note string) (*Movement, error) {
	if newQty.IsNegative() {
		return nil, apperror.Validationf("quantity", "cannot be negative")
	}
	if loc == "" {
		loc = models.LocationMain
	}
	if err := checkLocation(loc); err != nil {
		return nil, err
	}

	mv, before, err := s.apply(ctx, id, func(ing *models.Ingredient) (*ledger.Entry, error) {
		target := &ing.MainStock
		if loc == models.LocationRoom {
			target = &ing.StockRoom
		}
		delta := newQty.Sub(*target)
		if delta.IsZero() {
			return nil, nil
		}
		*target = newQty

		kind := models.TxStockIn
		if delta.IsNegative() {
			kind = models.TxAdjustment
		}
		if note == "" {
			if delta.IsPositive() {
				note = fmt.Sprintf("Added %s%s to %s", delta, ing.Unit, locationLabel(loc))
			} else {
				note = fmt.Sprintf("Manual adjustment: removed %s%s from %s", delta.Neg(), ing.Unit, locationLabel(loc))
			}
		}
		return ledger.At(ledger.NewEntry(*ing, kind, delta, actor, note, ""), loc), nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.AuditActionStockAdjusted, before, mv)
	return mv, nil
}
