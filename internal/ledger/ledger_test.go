package ledger

import (
	"bytes"
	"context"
	"testing"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"
	"pos-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func uptr(v uint) *uint { return &v }

var d = testutil.D

func assertTotals(t *testing.T, count int, qty, cost float64, got Totals) {
	t.Helper()
	assert.Equal(t, count, got.Count)
	testutil.AssertDecimal(t, qty, got.Quantity, "quantity")
	testutil.AssertDecimal(t, cost, got.Cost, "cost")
}

func TestAppendComputesTotalCost(t *testing.T) {
	db := testutil.NewDB(t)
	ing := models.Ingredient{ID: 7, Name: "Milk", Unit: "l", Cost: d(1.5), MainStock: d(9)}

	e := NewEntry(ing, models.TxStockOut, d(-2), "", "Used in sale (recipe)", "Sale-abc")
	require.NoError(t, Append(context.Background(), db, e))

	assert.NotZero(t, e.ID)
	testutil.AssertDecimal(t, 3, e.TotalCost)
	assert.Equal(t, "System", e.UserName)
	testutil.AssertDecimal(t, 9, e.MainStockAfter)

	assert.Error(t, Append(context.Background(), db, e), "re-appending must fail")
}

func TestAppendRejectsInvalidEntries(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	assert.Error(t, Append(ctx, db, &Entry{IngredientName: "Milk", TransactionType: "SHRINK"}))
	assert.Error(t, Append(ctx, db, &Entry{IngredientName: " ", TransactionType: models.TxWaste}))
}

func TestQueryNewestFirstWithFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := []Entry{
		{IngredientID: uptr(1), IngredientName: "Milk", TransactionType: models.TxStockIn, Quantity: d(10), CreatedAt: base},
		{IngredientID: uptr(1), IngredientName: "Milk", TransactionType: models.TxStockOut, Quantity: d(-1), CreatedAt: base.Add(time.Hour)},
		{IngredientID: uptr(2), IngredientName: "Sugar", TransactionType: models.TxWaste, Quantity: d(-3), CreatedAt: base.Add(2 * time.Hour)},
		{IngredientID: uptr(1), IngredientName: "Milk", TransactionType: models.TxStockOut, Quantity: d(-2), CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range rows {
		require.NoError(t, Append(ctx, db, &rows[i]))
	}

	all, err := Query(ctx, db, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	testutil.AssertDecimal(t, -2, all[0].Quantity)
	testutil.AssertDecimal(t, 10, all[3].Quantity)

	milkOut, err := Query(ctx, db, Filter{IngredientID: uptr(1), Kind: models.TxStockOut})
	require.NoError(t, err)
	require.Len(t, milkOut, 2)

	from, to := base.Add(30*time.Minute), base.Add(150*time.Minute)
	window, err := Query(ctx, db, Filter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, models.TxWaste, window[0].TransactionType)

	limited, err := Query(ctx, db, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{IngredientName: "Milk", TransactionType: models.TxStockIn, Quantity: d(10), TotalCost: d(15)},
		{IngredientName: "Milk", TransactionType: models.TxStockOut, Quantity: d(-1), TotalCost: d(1.5)},
		{IngredientName: "Milk", TransactionType: models.TxStockOut, Quantity: d(-2), TotalCost: d(3)},
		{IngredientName: "Sugar", TransactionType: models.TxWaste, Quantity: d(-3), TotalCost: d(0.3)},
		{IngredientName: "Sugar", TransactionType: models.TxTransferToMain, Quantity: d(5)},
		{IngredientName: "Sugar", TransactionType: models.TxAdjustment, Quantity: d(-0.5), TotalCost: d(0.05)},
	}

	s := Summarize(entries)
	assertTotals(t, 1, 10, 15, s.StockIn)
	assertTotals(t, 2, 3, 4.5, s.StockOut)
	assertTotals(t, 1, 3, 0.3, s.Waste)
	assert.Equal(t, 1, s.Transfers.Count)
	testutil.AssertDecimal(t, -0.5, s.Adjustments.Quantity)

	require.Len(t, s.ByIngredient, 2)
	assert.Equal(t, "Milk", s.ByIngredient[0].Name)
	testutil.AssertDecimal(t, 3, s.ByIngredient[0].StockOut)
	testutil.AssertDecimal(t, 3, s.ByIngredient[1].Waste)

	assert.Equal(t, s, Summarize(entries), "summary is a pure reduction")
}

func TestReplay(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	history := []Entry{
		{ID: 4, TransactionType: models.TxTransferToRoom, Quantity: d(1), MainStockAfter: d(10.5), StockRoomAfter: d(6), CreatedAt: t0.Add(3 * time.Minute)},
		{ID: 1, TransactionType: models.TxStockIn, Location: models.LocationMain, Quantity: d(10), MainStockAfter: d(10), StockRoomAfter: d(5), CreatedAt: t0},
		{ID: 2, TransactionType: models.TxStockOut, Quantity: d(-1), MainStockAfter: d(9), StockRoomAfter: d(5), CreatedAt: t0.Add(time.Minute)},
		{ID: 3, TransactionType: models.TxTransferToMain, Quantity: d(2.5), MainStockAfter: d(11.5), StockRoomAfter: d(2.5), CreatedAt: t0.Add(2 * time.Minute)},
		{ID: 5, TransactionType: models.TxStockIn, Location: models.LocationRoom, Quantity: d(4), MainStockAfter: d(10.5), StockRoomAfter: d(10), CreatedAt: t0.Add(3 * time.Minute)},
		{ID: 6, TransactionType: models.TxWaste, Quantity: d(-0.5), MainStockAfter: d(10), StockRoomAfter: d(10), CreatedAt: t0.Add(4 * time.Minute)},
	}
	history[3].StockRoomAfter = d(3) // 5 - 2.5 would be 2.5; corrupt it

	_, err := Replay(history)
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.EqualValues(t, 3, mm.EntryID)

	history[3].StockRoomAfter = d(2.5)
	history[0].StockRoomAfter = d(3.5)
	history[4].StockRoomAfter = d(7.5)
	history[5].StockRoomAfter = d(7.5)
	s, err := Replay(history)
	require.NoError(t, err)
	assert.True(t, State{MainStock: d(10), StockRoom: d(7.5)}.Equal(s), "got %+v", s)
}

func TestVerifyUnknownIngredient(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := Verify(context.Background(), db, 42)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestVerifyWithoutHistoryIsConsistent(t *testing.T) {
	db := testutil.NewDB(t)
	ing := testutil.SeedIngredient(t, db, models.Ingredient{Name: "Cocoa", MainStock: d(3)})

	v, err := Verify(context.Background(), db, ing.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent)
	assert.Zero(t, v.Entries)
}

func TestExportWritesWorkbook(t *testing.T) {
	entries := []Entry{
		{IngredientName: "Milk", TransactionType: models.TxStockOut, Quantity: d(-1), Unit: "l", MainStockAfter: d(9), Reference: "Sale-1", CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Notes", rows[0][13])
	assert.Equal(t, []string{"2025-03-01", "09:30:00", "Milk", "STOCK_OUT"}, rows[1][:4])
	assert.Equal(t, "Sale-1", rows[1][12])
}

func TestClearAll(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	require.NoError(t, Append(ctx, db, &Entry{IngredientName: "Milk", TransactionType: models.TxWaste, Quantity: d(-1)}))
	require.NoError(t, Append(ctx, db, &Entry{IngredientName: "Milk", TransactionType: models.TxWaste, Quantity: d(-1)}))

	n, err := ClearAll(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rest, err := Query(ctx, db, Filter{})
	require.NoError(t, err)
	assert.Empty(t, rest)
}
