package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Inventory Transactions"

var exportHeaders = []any{
	"Date", "Time", "Ingredient", "Transaction Type", "Location", "Quantity", "Unit",
	"Cost per Unit", "Total Cost", "Main Stock After", "Stock Room After",
	"User", "Reference", "Notes",
}

// Export writes entries as an XLSX workbook, one row per entry in the given order.
func Export(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(exportSheet, 1, 1, bold)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			e.CreatedAt.Format("2006-01-02"),
			e.CreatedAt.Format("15:04:05"),
			e.IngredientName,
			string(e.TransactionType),
			string(e.Location),
			e.Quantity.InexactFloat64(),
			e.Unit,
			e.CostPerUnit.InexactFloat64(),
			e.TotalCost.InexactFloat64(),
			e.MainStockAfter.InexactFloat64(),
			e.StockRoomAfter.InexactFloat64(),
			e.UserName,
			e.Reference,
			e.Notes,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "B", 12)
	_ = f.SetColWidth(exportSheet, "C", "D", 20)
	_ = f.SetColWidth(exportSheet, "E", "K", 14)
	_ = f.SetColWidth(exportSheet, "L", "M", 18)
	_ = f.SetColWidth(exportSheet, "N", "N", 40)

	return f.Write(w)
}
