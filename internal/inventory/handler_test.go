package inventory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"pos-backend/internal/models"
	"pos-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func catalogApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	app := fiber.New()
	app.Get("/products", ListProductsHandler(db))
	app.Post("/products", CreateProductHandler(db))
	app.Put("/products/:id", UpdateProductHandler(db))
	app.Delete("/products/:id", DeactivateProductHandler(db))
	app.Get("/ingredients", ListIngredientsHandler(db))
	app.Post("/ingredients", CreateIngredientHandler(db))
	app.Put("/ingredients/:id", UpdateIngredientHandler(db))
	return app, db
}

func send(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestProductHandlers(t *testing.T) {
	app, db := catalogApp(t)

	resp := send(t, app, "POST", "/products", `{"name":" Latte ","price":4.5,"recipe":[{"ingredient":"Milk","quantity":0.2}]}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var latte models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&latte))
	assert.Equal(t, "Latte", latte.Name)
	assert.True(t, latte.IsRecipe())

	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", "/products", `{"name":"latte"}`).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, send(t, app, "POST", "/products", `{"name":"Tea","price":-1}`).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, send(t, app, "POST", "/products", `{"name":"Tea","recipe":[{"ingredient":"Leaves","quantity":-2}]}`).StatusCode)

	resp = send(t, app, "PUT", "/products/"+itoa(latte.ID), `{"price":4.75}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, send(t, app, "PUT", "/products/999", `{"price":1}`).StatusCode)

	assert.Equal(t, fiber.StatusNoContent, send(t, app, "DELETE", "/products/"+itoa(latte.ID), "").StatusCode)
	var stored models.Product
	require.NoError(t, db.First(&stored, latte.ID).Error)
	assert.False(t, stored.IsActive)
	assert.Equal(t, 4.75, stored.Price)

	resp = send(t, app, "GET", "/products?active=true", "")
	var active []models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&active))
	assert.Empty(t, active)
}

func TestIngredientHandlers(t *testing.T) {
	app, db := catalogApp(t)

	resp := send(t, app, "POST", "/ingredients", `{"name":"Milk","unit":"l","reorder":2,"cost":1.2}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var milk models.Ingredient
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&milk))
	assert.Equal(t, models.StatusOutOfStock, milk.Status)
	assert.Equal(t, models.NonPerishable, milk.IngredientType)

	assert.Equal(t, fiber.StatusBadRequest, send(t, app, "POST", "/ingredients", `{"name":"Sugar"}`).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, send(t, app, "POST", "/ingredients", `{"name":"Sugar","unit":"g","ingredient_type":"frozen"}`).StatusCode)
	assert.Equal(t, fiber.StatusConflict, send(t, app, "POST", "/ingredients", `{"name":"MILK","unit":"l"}`).StatusCode)

	require.NoError(t, db.Model(&models.Ingredient{}).Where("id = ?", milk.ID).Update("main_stock", 3).Error)
	resp = send(t, app, "PUT", "/ingredients/"+itoa(milk.ID), `{"reorder":5,"main_stock":100}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	after := testutil.ReloadIngredient(t, db, milk.ID)
	testutil.AssertDecimal(t, 3, after.MainStock, "quantities are not editable")
	testutil.AssertDecimal(t, 5, after.Reorder)
	assert.Equal(t, models.StatusLowStock, after.Status)

	resp = send(t, app, "GET", "/ingredients?status=Low%20Stock", "")
	var low []models.Ingredient
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&low))
	assert.Len(t, low, 1)
}

func TestProductEditKeepsConcurrentStockChange(t *testing.T) {
	app, db := catalogApp(t)
	water := testutil.SeedProduct(t, db, models.Product{Name: "Bottled Water", Price: 1.25, Stock: 3})

	// a till sells two bottles after the edit has loaded the row
	var sold atomic.Bool
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:till_sale", func(tx *gorm.DB) {
		if tx.Statement.Table != "products" || !sold.CompareAndSwap(false, true) {
			return
		}
		err := tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE products SET stock = stock - 2 WHERE id = ?", water.ID).Error
		assert.NoError(t, err)
	}))

	resp := send(t, app, "PUT", "/products/"+itoa(water.ID), `{"price":1.5}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, sold.Load())

	var got models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Stock)

	var stored models.Product
	require.NoError(t, db.First(&stored, water.ID).Error)
	assert.Equal(t, 1, stored.Stock)
	assert.Equal(t, 1.5, stored.Price)
}

func TestIngredientEditKeepsConcurrentStockChange(t *testing.T) {
	app, db := catalogApp(t)
	milk := testutil.SeedIngredient(t, db, models.Ingredient{Name: "Milk", Unit: "l", MainStock: testutil.D(4), Reorder: testutil.D(2)})

	var drained atomic.Bool
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:till_drain", func(tx *gorm.DB) {
		if tx.Statement.Table != "ingredients" || !drained.CompareAndSwap(false, true) {
			return
		}
		err := tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE ingredients SET main_stock = 1 WHERE id = ?", milk.ID).Error
		assert.NoError(t, err)
	}))

	resp := send(t, app, "PUT", "/ingredients/"+itoa(milk.ID), `{"cost":0.9}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, drained.Load())

	after := testutil.ReloadIngredient(t, db, milk.ID)
	testutil.AssertDecimal(t, 1, after.MainStock)
	testutil.AssertDecimal(t, 0.9, after.Cost)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
