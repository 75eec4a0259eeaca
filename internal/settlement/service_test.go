package settlement

import (
	"context"
	"sync"
	"testing"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/inventory"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	milk  models.Ingredient
	beans models.Ingredient
	latte models.Product
	water models.Product
}

func setup(t *testing.T, milkStock float64) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := fixture{db: db}
	f.milk = testutil.SeedIngredient(t, db, models.Ingredient{Name: "Milk", MainStock: testutil.D(milkStock), StockRoom: testutil.D(20), Reorder: testutil.D(2), Unit: "l", Cost: testutil.D(1.2)})
	f.beans = testutil.SeedIngredient(t, db, models.Ingredient{Name: "Espresso Beans", MainStock: testutil.D(1000), Reorder: testutil.D(100), Unit: "g", Cost: testutil.D(0.03)})
	f.latte = testutil.SeedProduct(t, db, models.Product{Name: "Latte", Price: 4.5, Recipe: models.RecipeLines{{Ingredient: "Milk", Quantity: testutil.D(0.2)}}})
	f.water = testutil.SeedProduct(t, db, models.Product{Name: "Bottled Water", Price: 1.25, Stock: 3})
	pub := audit.NewPublisher(zap.NewNop(), audit.DBSink{DB: db})
	f.svc = NewService(db, 3, pub, zap.NewNop())
	return f
}

func (f fixture) ledgerCount(t *testing.T) int {
	entries, err := ledger.Query(context.Background(), f.db, ledger.Filter{})
	require.NoError(t, err)
	return len(entries)
}

// emptyRoom drops the milk back-up stock so status follows main stock alone.
func (f fixture) emptyRoom(t *testing.T) {
	require.NoError(t, f.db.Model(&models.Ingredient{}).Where("id = ?", f.milk.ID).Update("stock_room", 0).Error)
}

func (f fixture) sellLattes(n int) error {
	_, err := f.svc.Settle(context.Background(), Cart{Lines: []inventory.CartLine{{ProductID: f.latte.ID, Quantity: n}}})
	return err
}

func TestSettleRecipeProduct(t *testing.T) {
	f := setup(t, 10)

	receipt, err := f.svc.Settle(context.Background(), Cart{Lines: []inventory.CartLine{{ProductID: f.latte.ID, Quantity: 5}}, Actor: "Ana"})
	require.NoError(t, err)

	milk := testutil.ReloadIngredient(t, f.db, f.milk.ID)
	testutil.AssertDecimal(t, 9, milk.MainStock)
	testutil.AssertDecimal(t, 20, milk.StockRoom)
	assert.Equal(t, models.StatusInStock, milk.Status)

	entries, err := ledger.Query(context.Background(), f.db, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.TxStockOut, entries[0].TransactionType)
	testutil.AssertDecimal(t, -1, entries[0].Quantity)
	testutil.AssertDecimal(t, 9, entries[0].MainStockAfter)
	assert.Equal(t, receipt.Reference, entries[0].Reference)
	assert.Equal(t, "Ana", entries[0].UserName)
	testutil.AssertDecimal(t, 1.2, entries[0].TotalCost)

	assert.Equal(t, 22.5, receipt.Total)
	require.Len(t, receipt.Deductions, 1)
	testutil.AssertDecimal(t, 1, receipt.Deductions[0].Quantity)

	var sale models.Sale
	require.NoError(t, f.db.Preload("Items").First(&sale, receipt.SaleID).Error)
	assert.Equal(t, models.SaleStatusPaid, sale.Status)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 5, sale.Items[0].Quantity)

	var audits int64
	f.db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionSaleSettled).Count(&audits)
	assert.EqualValues(t, 1, audits)
}

func TestSettleInsufficientLeavesNoTrace(t *testing.T) {
	f := setup(t, 0.5)

	_, err := f.svc.Check(context.Background(), []inventory.CartLine{{ProductID: f.latte.ID, Quantity: 5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Milk")

	_, err = f.svc.Settle(context.Background(), Cart{Lines: []inventory.CartLine{
		{ProductID: f.water.ID, Quantity: 1},
		{ProductID: f.latte.ID, Quantity: 5},
	}})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	milk := testutil.ReloadIngredient(t, f.db, f.milk.ID)
	testutil.AssertDecimal(t, 0.5, milk.MainStock)

	var water models.Product
	require.NoError(t, f.db.First(&water, f.water.ID).Error)
	assert.Equal(t, 3, water.Stock)

	assert.Zero(t, f.ledgerCount(t))
	var sales, audits int64
	f.db.Model(&models.Sale{}).Count(&sales)
	f.db.Model(&models.AuditLog{}).Count(&audits)
	assert.Zero(t, sales)
	assert.Zero(t, audits)
}

func TestSettleMixedCartAggregatesIngredients(t *testing.T) {
	f := setup(t, 10)
	flatWhite := testutil.SeedProduct(t, f.db, models.Product{Name: "Flat White", Price: 4, Recipe: models.RecipeLines{
		{Ingredient: "milk", Quantity: testutil.D(0.15)},
		{Ingredient: "Espresso Beans", Quantity: testutil.D(18)},
	}})

	receipt, err := f.svc.Settle(context.Background(), Cart{Lines: []inventory.CartLine{
		{ProductID: f.latte.ID, Quantity: 2},
		{ProductID: flatWhite.ID, Quantity: 3},
		{ProductID: f.water.ID, Quantity: 2},
	}})
	require.NoError(t, err)

	milk := testutil.ReloadIngredient(t, f.db, f.milk.ID)
	testutil.AssertDecimal(t, 9.15, milk.MainStock)
	beans := testutil.ReloadIngredient(t, f.db, f.beans.ID)
	testutil.AssertDecimal(t, 946, beans.MainStock)

	var water models.Product
	require.NoError(t, f.db.First(&water, f.water.ID).Error)
	assert.Equal(t, 1, water.Stock)

	// one stock-out per distinct ingredient, none for direct-stock products
	assert.Equal(t, 2, f.ledgerCount(t))
	assert.Len(t, receipt.Lines, 3)
	assert.Equal(t, 4.5*2+4.0*3+1.25*2, receipt.Total)
}

func TestSettleUpdatesStatus(t *testing.T) {
	f := setup(t, 3)

	_, err := f.svc.Settle(context.Background(), Cart{Lines: []inventory.CartLine{{ProductID: f.latte.ID, Quantity: 10}}})
	require.NoError(t, err)

	milk := testutil.ReloadIngredient(t, f.db, f.milk.ID)
	testutil.AssertDecimal(t, 1, milk.MainStock)
	assert.Equal(t, models.StatusLowStock, milk.Status)
}

func TestCheckThenSettleOnUnchangedCatalog(t *testing.T) {
	f := setup(t, 10)
	lines := []inventory.CartLine{{ProductID: f.latte.ID, Quantity: 50}}

	_, err := f.svc.Check(context.Background(), lines)
	require.NoError(t, err)
	_, err = f.svc.Settle(context.Background(), Cart{Lines: lines})
	require.NoError(t, err)
	assert.True(t, testutil.ReloadIngredient(t, f.db, f.milk.ID).MainStock.IsZero())
}

func TestSettleExactlyCoveredCart(t *testing.T) {
	f := setup(t, 0.6)

	_, err := f.svc.Check(context.Background(), []inventory.CartLine{{ProductID: f.latte.ID, Quantity: 3}})
	require.NoError(t, err)
	require.NoError(t, f.sellLattes(3))

	milk := testutil.ReloadIngredient(t, f.db, f.milk.ID)
	assert.True(t, milk.MainStock.IsZero(), "main stock %s", milk.MainStock)

	v, err := ledger.Verify(context.Background(), f.db, f.milk.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent, v.Problem)
}

func TestRepeatedSalesDrainToOutOfStock(t *testing.T) {
	f := setup(t, 1.0)
	f.emptyRoom(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, f.sellLattes(1), "sale %d", i+1)
	}

	milk := testutil.ReloadIngredient(t, f.db, f.milk.ID)
	assert.True(t, milk.MainStock.IsZero(), "main stock %s", milk.MainStock)
	assert.Equal(t, models.StatusOutOfStock, milk.Status)

	err := f.sellLattes(1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	v, err := ledger.Verify(context.Background(), f.db, f.milk.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent, v.Problem)
}

func TestSettleRevalidatesAfterCheck(t *testing.T) {
	f := setup(t, 1.0)
	lines := []inventory.CartLine{{ProductID: f.latte.ID, Quantity: 5}}

	_, err := f.svc.Check(context.Background(), lines)
	require.NoError(t, err)

	// another till drains milk between the check and the settlement
	require.NoError(t, f.db.Model(&models.Ingredient{}).Where("id = ?", f.milk.ID).Update("main_stock", 0.4).Error)

	_, err = f.svc.Settle(context.Background(), Cart{Lines: lines})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, err.Error(), "Milk")

	testutil.AssertDecimal(t, 0.4, testutil.ReloadIngredient(t, f.db, f.milk.ID).MainStock)
	assert.Zero(t, f.ledgerCount(t))
	var sales int64
	f.db.Model(&models.Sale{}).Count(&sales)
	assert.Zero(t, sales)
}

func TestConcurrentSettlementsNeverOversell(t *testing.T) {
	f := setup(t, 1.0)
	f.emptyRoom(t)

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		settled  int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Settle(context.Background(), Cart{Lines: []inventory.CartLine{{ProductID: f.latte.ID, Quantity: 1}}})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				settled++
			} else if apperror.Is(err, apperror.KindValidation) {
				rejected++
			}
		}()
	}
	wg.Wait()

	// 0.2 per latte out of 1.0
	assert.Equal(t, 5, settled)
	assert.Equal(t, 3, rejected)
	milk := testutil.ReloadIngredient(t, f.db, f.milk.ID)
	assert.True(t, milk.MainStock.IsZero(), "main stock %s", milk.MainStock)
	assert.Equal(t, models.StatusOutOfStock, milk.Status)
	assert.Equal(t, settled, f.ledgerCount(t))

	v, err := ledger.Verify(context.Background(), f.db, f.milk.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent, v.Problem)
}
