package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/database"
	"pos-backend/internal/inventory"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Cart struct {
	Lines         []inventory.CartLine `json:"lines"`
	Actor         string               `json:"-"`
	CustomerName  string               `json:"customer_name"`
	PaymentMethod string               `json:"payment_method"`
}

type ReceiptLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type Deduction struct {
	IngredientID   uint                    `json:"ingredient_id"`
	Ingredient     string                  `json:"ingredient"`
	Quantity       decimal.Decimal         `json:"quantity"`
	Unit           string                  `json:"unit"`
	MainStockAfter decimal.Decimal         `json:"main_stock_after"`
	Status         models.IngredientStatus `json:"status"`
}

type Receipt struct {
	SaleID     uint          `json:"sale_id"`
	Reference  string        `json:"reference"`
	Cashier    string        `json:"cashier"`
	Lines      []ReceiptLine `json:"lines"`
	Deductions []Deduction   `json:"deductions"`
	Total      float64       `json:"total"`
	CreatedAt  time.Time     `json:"created_at"`
}

type Service struct {
	db      *gorm.DB
	retries int
	audit   *audit.Publisher
	log     *zap.Logger
}

func NewService(db *gorm.DB, retries int, pub *audit.Publisher, log *zap.Logger) *Service {
	return &Service{db: db, retries: retries, audit: pub, log: log.Named("settlement")}
}

// Check validates a cart against current stock without locking or mutating anything.
func (s *Service) Check(ctx context.Context, lines []inventory.CartLine) (*inventory.Requirements, error) {
	return inventory.Validate(ctx, inventory.NewCatalog(s.db), lines)
}

type stockChange struct {
	name          string
	before, after decimal.Decimal
}

// Settle validates and applies a cart in one serializable transaction. Either the
// sale, every stock decrement and every ledger entry are committed, or none is.
func (s *Service) Settle(ctx context.Context, cart Cart) (*Receipt, error) {
	if cart.Actor == "" {
		cart.Actor = "System"
	}

	var (
		receipt *Receipt
		changes []stockChange
	)
	err := database.InTx(ctx, s.db, s.retries, func(tx *gorm.DB) error {
		cat := inventory.ForUpdate(tx)
		req, err := inventory.Validate(ctx, cat, cart.Lines)
		if err != nil {
			return err
		}
		receipt, changes, err = s.apply(ctx, tx, cat, cart, req)
		return err
	})
	if err != nil {
		s.log.Info("settlement rejected", zap.String("actor", cart.Actor), zap.Error(err))
		return nil, err
	}

	s.log.Info("sale settled",
		zap.String("reference", receipt.Reference),
		zap.Float64("total", receipt.Total),
		zap.Int("deductions", len(receipt.Deductions)))
	s.audit.Publish(ctx, settledEvent(receipt, changes))
	return receipt, nil
}

func (s *Service) apply(ctx context.Context, tx *gorm.DB, cat *inventory.Catalog, cart Cart, req *inventory.Requirements) (*Receipt, []stockChange, error) {
	r := &Receipt{Reference: "Sale-" + uuid.NewString(), Cashier: cart.Actor}

	sale := models.Sale{
		Reference:     r.Reference,
		Cashier:       cart.Actor,
		CustomerName:  cart.CustomerName,
		PaymentMethod: cart.PaymentMethod,
		Status:        models.SaleStatusPaid,
	}
	for _, l := range req.Lines {
		p := req.Products[l.ProductID]
		line := ReceiptLine{ProductID: p.ID, Name: p.Name, Quantity: l.Quantity, UnitPrice: p.Price, LineTotal: p.Price * float64(l.Quantity)}
		r.Lines = append(r.Lines, line)
		r.Total += line.LineTotal
		sale.Items = append(sale.Items, models.SaleItem{ProductID: p.ID, ProductName: p.Name, Quantity: l.Quantity, PriceAtSale: p.Price})
	}
	sale.Total = r.Total
	if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
		return nil, nil, fmt.Errorf("create sale: %w", err)
	}
	r.SaleID, r.CreatedAt = sale.ID, sale.CreatedAt

	var changes []stockChange
	for _, d := range req.Direct {
		if err := cat.DecrementProductStock(ctx, d.Product.ID, d.Quantity); err != nil {
			return nil, nil, err
		}
		changes = append(changes, stockChange{"product " + d.Product.Name, decimal.NewFromInt(int64(d.Product.Stock)), decimal.NewFromInt(int64(d.Product.Stock - d.Quantity))})
	}

	for _, need := range req.Ingredients {
		ing := need.Ingredient
		before := ing.MainStock
		ing.MainStock = ing.MainStock.Sub(need.Quantity)
		if err := cat.SaveStock(ctx, &ing); err != nil {
			return nil, nil, err
		}

		note := "Used in sale (recipe): " + strings.Join(need.Products, ", ")
		entry := ledger.NewEntry(ing, models.TxStockOut, need.Quantity.Neg(), cart.Actor, note, r.Reference)
		if err := ledger.Append(ctx, tx, entry); err != nil {
			return nil, nil, err
		}

		r.Deductions = append(r.Deductions, Deduction{
			IngredientID:   ing.ID,
			Ingredient:     ing.Name,
			Quantity:       need.Quantity,
			Unit:           ing.Unit,
			MainStockAfter: ing.MainStock,
			Status:         ing.Status,
		})
		changes = append(changes, stockChange{"ingredient " + ing.Name, before, ing.MainStock})
	}
	return r, changes, nil
}

func settledEvent(r *Receipt, changes []stockChange) audit.Event {
	before := make(map[string]decimal.Decimal, len(changes))
	after := make(map[string]decimal.Decimal, len(changes))
	for _, c := range changes {
		before[c.name] = c.before
		after[c.name] = c.after
	}
	return audit.Event{
		Actor:       r.Cashier,
		Action:      models.AuditActionSaleSettled,
		Category:    audit.CategorySales,
		Description: fmt.Sprintf("Sale %s settled: %d lines, total %.2f", r.Reference, len(r.Lines), r.Total),
		EntityType:  "sale",
		EntityID:    r.SaleID,
		Reference:   r.Reference,
		Before:      before,
		After:       after,
		OccurredAt:  r.CreatedAt,
	}
}
