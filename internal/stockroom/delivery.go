package stockroom

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/database"
	"pos-backend/internal/inventory"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/recipe"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeliveryLine is one row of a supplier delivery note.
type DeliveryLine struct {
	Row      int                  `json:"row"`
	Name     string               `json:"name"`
	Quantity decimal.Decimal      `json:"quantity"`
	Location models.StockLocation `json:"location"`
}

var (
	packSizeSuffix = regexp.MustCompile(`(?i)\s+[\d.,]+\s*(?:kg|gr|g|lt|l|ml|pcs)\s*$`)
	numericWord    = regexp.MustCompile(`^[\d.,]+(?:kg|gr|g|lt|l|ml|pcs)?$`)
)

// CleanItemName drops pack sizes such as "1KG" or "500 ml" so supplier item names
// can be matched to catalog ingredients: "Whole Milk 1L" -> "whole milk".
func CleanItemName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = packSizeSuffix.ReplaceAllString(s, "")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !numericWord.MatchString(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToUpper(strings.TrimSpace(row[0]))
	return strings.Contains(first, "INGREDIENT") || strings.Contains(first, "ITEM") || strings.Contains(first, "PRODUCT")
}

// ParseDelivery reads the first sheet of an XLSX delivery note. Columns: item name,
// quantity, optional location ("main" or "room", default main). A header row is skipped.
func ParseDelivery(r io.Reader) ([]DeliveryLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.Validationf("delivery", "not a readable xlsx file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.Validationf("delivery", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperror.Validationf("delivery", "cannot read sheet %q: %v", sheets[0], err)
	}

	var out []DeliveryLine
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		line := DeliveryLine{Row: i + 1, Name: strings.TrimSpace(row[0]), Location: models.LocationMain}
		if len(row) < 2 {
			return nil, apperror.Validationf(fmt.Sprintf("delivery row %d", line.Row), "quantity missing")
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[1]), ",", "."))
		if err != nil || !qty.IsPositive() {
			return nil, apperror.Validationf(fmt.Sprintf("delivery row %d", line.Row), "quantity %q must be a positive number", row[1])
		}
		line.Quantity = qty
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			line.Location = models.StockLocation(strings.ToLower(strings.TrimSpace(row[2])))
			if err := checkLocation(line.Location); err != nil {
				return nil, err
			}
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil, apperror.Validationf("delivery", "no item rows")
	}
	return out, nil
}

type DeliveryResult struct {
	Reference string         `json:"reference"`
	Entries   []ledger.Entry `json:"entries"`
	Unmatched []DeliveryLine `json:"unmatched"`
}

// ReceiveDelivery books every matched line as STOCK_IN in one transaction. Lines
// whose name matches no ingredient are reported back and not booked.
func (s *Service) ReceiveDelivery(ctx context.Context, lines []DeliveryLine, actor, reference string) (*DeliveryResult, error) {
	if len(lines) == 0 {
		return nil, apperror.Validationf("delivery", "no item rows")
	}
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, apperror.Validationf(fmt.Sprintf("delivery row %d", l.Row), "quantity must be greater than zero")
		}
		if err := checkLocation(l.Location); err != nil {
			return nil, err
		}
	}

	var res DeliveryResult
	err := database.InTx(ctx, s.db, s.retries, func(tx *gorm.DB) error {
		res = DeliveryResult{Reference: reference}
		cat := inventory.ForUpdate(tx)
		ings, err := cat.Ingredients(ctx)
		if err != nil {
			return err
		}
		matcher := recipe.NewMatcher(ings)

		touched := map[uint]*models.Ingredient{}
		for _, l := range lines {
			ing, ok := matcher.Match(CleanItemName(l.Name))
			if !ok {
				res.Unmatched = append(res.Unmatched, l)
				continue
			}
			if l.Location == models.LocationRoom {
				ing.StockRoom = ing.StockRoom.Add(l.Quantity)
			} else {
				ing.MainStock = ing.MainStock.Add(l.Quantity)
			}
			touched[ing.ID] = ing
			note := fmt.Sprintf("Delivery: %s (row %d)", l.Name, l.Row)
			entry := ledger.At(ledger.NewEntry(*ing, models.TxStockIn, l.Quantity, actor, note, reference), l.Location)
			if err := ledger.Append(ctx, tx, entry); err != nil {
				return err
			}
			res.Entries = append(res.Entries, *entry)
		}
		for _, ing := range touched {
			if err := cat.SaveStock(ctx, ing); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(res.Entries) > 0 {
		s.log.Info("delivery received",
			zap.String("reference", reference),
			zap.Int("booked", len(res.Entries)),
			zap.Int("unmatched", len(res.Unmatched)))
		s.audit.Publish(ctx, audit.Event{
			Actor:       actor,
			Action:      models.AuditActionStockReceived,
			Category:    audit.CategoryInventory,
			Description: fmt.Sprintf("%s received delivery %s: %d lines booked, %d unmatched", actor, reference, len(res.Entries), len(res.Unmatched)),
			EntityType:  "delivery",
			Reference:   reference,
			After:       res.Entries,
		})
	}
	return &res, nil
}
