package stockroom

import (
	"context"
	"testing"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"
	"pos-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB, models.Ingredient) {
	t.Helper()
	db := testutil.NewDB(t)
	flour := testutil.SeedIngredient(t, db, models.Ingredient{Name: "Flour", MainStock: testutil.D(5), StockRoom: testutil.D(20), Reorder: testutil.D(4), Unit: "kg", Cost: testutil.D(0.8)})
	svc := NewService(db, 3, audit.NewPublisher(zap.NewNop(), audit.DBSink{DB: db}), zap.NewNop())
	return svc, db, flour
}

func TestReceive(t *testing.T) {
	svc, db, flour := setup(t)
	ctx := context.Background()

	mv, err := svc.Receive(ctx, flour.ID, models.LocationRoom, testutil.D(10), "Cem", "")
	require.NoError(t, err)
	require.NotNil(t, mv.Entry)
	assert.Equal(t, models.TxStockIn, mv.Entry.TransactionType)
	assert.Equal(t, models.LocationRoom, mv.Entry.Location)
	testutil.AssertDecimal(t, 10, mv.Entry.Quantity)
	testutil.AssertDecimal(t, 30, mv.Entry.StockRoomAfter)
	testutil.AssertDecimal(t, 8, mv.Entry.TotalCost)
	assert.Equal(t, "Added 10kg to stock room", mv.Entry.Notes)

	mv, err = svc.Receive(ctx, flour.ID, "", testutil.D(1), "Cem", "delivery #12")
	require.NoError(t, err)
	assert.Equal(t, models.LocationMain, mv.Entry.Location)
	assert.Equal(t, "delivery #12", mv.Entry.Notes)

	after := testutil.ReloadIngredient(t, db, flour.ID)
	testutil.AssertDecimal(t, 6, after.MainStock)
	testutil.AssertDecimal(t, 30, after.StockRoom)

	var audits int64
	db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionStockReceived).Count(&audits)
	assert.EqualValues(t, 2, audits)
}

func TestTransfer(t *testing.T) {
	svc, db, flour := setup(t)
	ctx := context.Background()

	mv, err := svc.Transfer(ctx, flour.ID, ToMain, testutil.D(8), "Cem")
	require.NoError(t, err)
	assert.Equal(t, models.TxTransferToMain, mv.Entry.TransactionType)
	testutil.AssertDecimal(t, 8, mv.Entry.Quantity)
	testutil.AssertDecimal(t, 13, mv.Ingredient.MainStock)
	testutil.AssertDecimal(t, 12, mv.Ingredient.StockRoom)
	assert.Equal(t, models.StatusInStock, mv.Ingredient.Status)

	mv, err = svc.Transfer(ctx, flour.ID, ToRoom, testutil.D(11), "Cem")
	require.NoError(t, err)
	assert.Equal(t, models.TxTransferToRoom, mv.Entry.TransactionType)
	testutil.AssertDecimal(t, 2, mv.Ingredient.MainStock)
	assert.Equal(t, models.StatusLowStock, mv.Ingredient.Status)

	_, err = svc.Transfer(ctx, flour.ID, ToMain, testutil.D(24), "Cem")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.Transfer(ctx, flour.ID, "sideways", testutil.D(1), "Cem")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	after := testutil.ReloadIngredient(t, db, flour.ID)
	testutil.AssertDecimal(t, 2, after.MainStock)
	testutil.AssertDecimal(t, 23, after.StockRoom)
}

func TestAdjust(t *testing.T) {
	svc, db, flour := setup(t)
	ctx := context.Background()

	mv, err := svc.Adjust(ctx, flour.ID, models.LocationMain, testutil.D(7.5), "Cem", "")
	require.NoError(t, err)
	assert.Equal(t, models.TxStockIn, mv.Entry.TransactionType)
	testutil.AssertDecimal(t, 2.5, mv.Entry.Quantity)

	mv, err = svc.Adjust(ctx, flour.ID, models.LocationRoom, testutil.D(18), "Cem", "")
	require.NoError(t, err)
	assert.Equal(t, models.TxAdjustment, mv.Entry.TransactionType)
	testutil.AssertDecimal(t, -2, mv.Entry.Quantity)
	assert.Equal(t, "Manual adjustment: removed 2kg from stock room", mv.Entry.Notes)

	mv, err = svc.Adjust(ctx, flour.ID, models.LocationRoom, testutil.D(18), "Cem", "")
	require.NoError(t, err)
	assert.Nil(t, mv.Entry, "unchanged count books nothing")

	_, err = svc.Adjust(ctx, flour.ID, models.LocationMain, testutil.D(-1), "Cem", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.Adjust(ctx, 404, models.LocationMain, testutil.D(1), "Cem", "")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	entries, err := ledger.Query(ctx, db, ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	after := testutil.ReloadIngredient(t, db, flour.ID)
	testutil.AssertDecimal(t, 7.5, after.MainStock)
	testutil.AssertDecimal(t, 18, after.StockRoom)
}

func TestMovementsReplayToCatalog(t *testing.T) {
	svc, db, flour := setup(t)
	ctx := context.Background()

	_, err := svc.Receive(ctx, flour.ID, models.LocationMain, testutil.D(1.1), "", "")
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, flour.ID, ToMain, testutil.D(3.3), "")
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, flour.ID, models.LocationMain, testutil.D(0.7), "", "")
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, flour.ID, ToRoom, testutil.D(0.2), "")
	require.NoError(t, err)

	v, err := ledger.Verify(ctx, db, flour.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent, v.Problem)
	assert.Equal(t, 4, v.Entries)
}
