package waste

import (
	"pos-backend/internal/apperror"
	"pos-backend/internal/auth"
	"pos-backend/internal/ledger"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateWasteRequest struct {
	IngredientID uint            `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason"`
}

type WasteResponse struct {
	ID             uint            `json:"id"`
	IngredientID   *uint           `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	CostAtWaste    decimal.Decimal `json:"cost_at_waste"`
	Reason         string          `json:"reason"`
	UserName       string          `json:"user_name"`
	WastedAt       string          `json:"wasted_at"`
}

func toResponse(l models.WastedLog) WasteResponse {
	return WasteResponse{
		ID:             l.ID,
		IngredientID:   l.IngredientID,
		IngredientName: l.IngredientName,
		Quantity:       l.Quantity,
		Unit:           l.Unit,
		CostAtWaste:    l.CostAtWaste,
		Reason:         string(l.Reason),
		UserName:       l.UserName,
		WastedAt:       l.WastedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/waste
func CreateWasteHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWasteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.IngredientID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ingredient_id is required")
		}

		wl, err := rec.Record(c.UserContext(), Request{
			IngredientID: body.IngredientID,
			Quantity:     body.Quantity,
			Reason:       models.WasteReason(body.Reason),
			Actor:        auth.Actor(c),
		})
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(*wl))
	}
}

// GET /api/waste?ingredient_id=&date_from=2025-01-01&date_to=2025-01-31
func ListWasteHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f ListFilter
		if id := c.QueryInt("ingredient_id"); id > 0 {
			uid := uint(id)
			f.IngredientID = &uid
		}
		if v := c.Query("date_from"); v != "" {
			d, err := ledger.DayStart(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date_from must be YYYY-MM-DD")
			}
			f.From = &d
		}
		if v := c.Query("date_to"); v != "" {
			d, err := ledger.DayEnd(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date_to must be YYYY-MM-DD")
			}
			f.To = &d
		}

		logs, err := List(c.UserContext(), db, f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list waste records")
		}

		resp := make([]WasteResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, toResponse(l))
		}
		return c.JSON(fiber.Map{
			"records": resp,
			"stats":   Summarize(logs),
		})
	}
}
