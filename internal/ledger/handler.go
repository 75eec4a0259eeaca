package ledger

import (
	"bytes"
	"fmt"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DefaultWindow applies when a query names no date range.
const DefaultWindow = 30 * 24 * time.Hour

// DayStart parses YYYY-MM-DD as local midnight, the zone created_at is written in.
func DayStart(v string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, v, time.Local)
}

// DayEnd is the last instant of the local day v.
func DayEnd(v string) (time.Time, error) {
	d, err := DayStart(v)
	if err != nil {
		return d, err
	}
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// filterFromQuery reads ingredient_id, type, date_from, date_to (YYYY-MM-DD) and limit.
func filterFromQuery(c *fiber.Ctx, now time.Time) (Filter, error) {
	var f Filter
	if id := c.QueryInt("ingredient_id"); id > 0 {
		uid := uint(id)
		f.IngredientID = &uid
	}
	if v := c.Query("type"); v != "" {
		kind := models.TransactionType(v)
		if !kind.Valid() {
			return f, fmt.Errorf("unknown transaction type %q", v)
		}
		f.Kind = kind
	}
	if v := c.Query("date_from"); v != "" {
		d, err := DayStart(v)
		if err != nil {
			return f, fmt.Errorf("date_from must be YYYY-MM-DD")
		}
		f.From = &d
	}
	if v := c.Query("date_to"); v != "" {
		d, err := DayEnd(v)
		if err != nil {
			return f, fmt.Errorf("date_to must be YYYY-MM-DD")
		}
		f.To = &d
	}
	if f.From == nil && f.To == nil {
		from := now.Add(-DefaultWindow)
		f.From = &from
	}
	f.Limit = c.QueryInt("limit", 0)
	return f, nil
}

// GET /api/ledger
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		entries, err := Query(c.UserContext(), db, f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load ledger")
		}
		return c.JSON(entries)
	}
}

// GET /api/ledger/summary
func SummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		f.Limit = 0
		entries, err := Query(c.UserContext(), db, f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load ledger")
		}
		return c.JSON(Summarize(entries))
	}
}

// GET /api/ledger/export
func ExportHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		entries, err := Query(c.UserContext(), db, f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load ledger")
		}

		var buf bytes.Buffer
		if err := Export(&buf, entries); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not build workbook")
		}
		name := fmt.Sprintf("inventory_transactions_%s.xlsx", time.Now().Format("20060102_150405"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Send(buf.Bytes())
	}
}

// GET /api/ledger/verify/:ingredientId
func VerifyHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("ingredientId")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid ingredient id")
		}
		v, err := Verify(c.UserContext(), db, uint(id))
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.JSON(v)
	}
}

// DELETE /api/ledger (admin)
func ClearHandler(db *gorm.DB, pub *audit.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := ClearAll(c.UserContext(), db)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not clear ledger")
		}
		actor := auth.Actor(c)
		pub.Publish(c.UserContext(), audit.Event{
			Actor:       actor,
			Action:      models.AuditActionLedgerCleared,
			Category:    audit.CategoryAdmin,
			Severity:    audit.SeverityWarning,
			Description: fmt.Sprintf("%s cleared %d ledger entries", actor, n),
			EntityType:  "inventory_transaction",
			After:       map[string]int64{"deleted": n},
		})
		return c.JSON(fiber.Map{"deleted": n})
	}
}
