package ledger

import (
	"sort"

	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Totals struct {
	Count    int             `json:"count"`
	Quantity decimal.Decimal `json:"total_quantity"`
	Cost     decimal.Decimal `json:"total_cost"`
}

type IngredientTotals struct {
	IngredientID *uint           `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	StockIn      decimal.Decimal `json:"stock_in"`
	StockOut     decimal.Decimal `json:"stock_out"`
	Waste        decimal.Decimal `json:"waste"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// Summary: stock-out and waste quantities are magnitudes; Adjustments.Quantity is net.
type Summary struct {
	StockIn      Totals             `json:"stock_in"`
	StockOut     Totals             `json:"stock_out"`
	Waste        Totals             `json:"waste"`
	Transfers    Totals             `json:"transfers"`
	Adjustments  Totals             `json:"adjustments"`
	ByIngredient []IngredientTotals `json:"by_ingredient"`
}

func (t *Totals) add(qty, cost decimal.Decimal) {
	t.Count++
	t.Quantity = t.Quantity.Add(qty)
	t.Cost = t.Cost.Add(cost)
}

// Summarize reduces entries without touching storage.
func Summarize(entries []Entry) Summary {
	var s Summary
	per := map[string]*IngredientTotals{}
	var order []string

	for _, e := range entries {
		key := e.IngredientName
		it, ok := per[key]
		if !ok {
			it = &IngredientTotals{IngredientID: e.IngredientID, Name: e.IngredientName, Unit: e.Unit}
			per[key] = it
			order = append(order, key)
		}
		it.TotalCost = it.TotalCost.Add(e.TotalCost)

		switch e.TransactionType {
		case models.TxStockIn:
			s.StockIn.add(e.Quantity, e.TotalCost)
			it.StockIn = it.StockIn.Add(e.Quantity)
		case models.TxStockOut:
			s.StockOut.add(e.Quantity.Abs(), e.TotalCost)
			it.StockOut = it.StockOut.Add(e.Quantity.Abs())
		case models.TxWaste:
			s.Waste.add(e.Quantity.Abs(), e.TotalCost)
			it.Waste = it.Waste.Add(e.Quantity.Abs())
		case models.TxTransferToMain, models.TxTransferToRoom:
			s.Transfers.add(e.Quantity.Abs(), e.TotalCost)
		case models.TxAdjustment:
			s.Adjustments.add(e.Quantity, e.TotalCost)
		}
	}

	s.ByIngredient = make([]IngredientTotals, 0, len(order))
	for _, k := range order {
		s.ByIngredient = append(s.ByIngredient, *per[k])
	}
	sort.SliceStable(s.ByIngredient, func(i, j int) bool {
		return s.ByIngredient[i].TotalCost.GreaterThan(s.ByIngredient[j].TotalCost)
	})
	return s
}
