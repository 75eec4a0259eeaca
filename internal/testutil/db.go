package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"pos-backend/internal/database"
	"pos-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func SeedIngredient(t testing.TB, db *gorm.DB, ing models.Ingredient) models.Ingredient {
	t.Helper()
	if ing.Unit == "" {
		ing.Unit = "g"
	}
	ing.RecomputeStatus()
	require.NoError(t, db.Create(&ing).Error)
	return ing
}

func SeedProduct(t testing.TB, db *gorm.DB, p models.Product) models.Product {
	t.Helper()
	p.IsActive = true
	require.NoError(t, db.Create(&p).Error)
	return p
}

func ReloadIngredient(t testing.TB, db *gorm.DB, id uint) models.Ingredient {
	t.Helper()
	var ing models.Ingredient
	require.NoError(t, db.First(&ing, id).Error)
	return ing
}
