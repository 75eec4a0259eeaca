package stockroom

import (
	"path/filepath"
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReceiveRequest struct {
	IngredientID uint                 `json:"ingredient_id"`
	Location     models.StockLocation `json:"location"`
	Quantity     decimal.Decimal      `json:"quantity"`
	Note         string               `json:"note"`
}

type TransferRequest struct {
	IngredientID uint            `json:"ingredient_id"`
	Direction    Direction       `json:"direction"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type AdjustRequest struct {
	IngredientID uint                 `json:"ingredient_id"`
	Location     models.StockLocation `json:"location"`
	NewQuantity  *decimal.Decimal     `json:"new_quantity"`
	Note         string               `json:"note"`
}

// POST /api/stock/receive
func ReceiveHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ReceiveRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.IngredientID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ingredient_id is required")
		}

		mv, err := svc.Receive(c.UserContext(), body.IngredientID, body.Location, body.Quantity, auth.Actor(c), body.Note)
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(mv)
	}
}

// POST /api/stock/transfer
func TransferHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TransferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.IngredientID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ingredient_id is required")
		}

		mv, err := svc.Transfer(c.UserContext(), body.IngredientID, body.Direction, body.Quantity, auth.Actor(c))
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(mv)
	}
}

// POST /api/stock/adjust
func AdjustHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.IngredientID == 0 || body.NewQuantity == nil {
			return fiber.NewError(fiber.StatusBadRequest, "ingredient_id and new_quantity are required")
		}

		mv, err := svc.Adjust(c.UserContext(), body.IngredientID, body.Location, *body.NewQuantity, auth.Actor(c), body.Note)
		if err != nil {
			return apperror.Fiber(err)
		}
		if mv.Entry == nil {
			return c.JSON(mv)
		}
		return c.Status(fiber.StatusCreated).JSON(mv)
	}
}

// POST /api/stock/delivery (multipart, field "file")
func DeliveryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
		}
		defer f.Close()

		lines, err := ParseDelivery(f)
		if err != nil {
			return apperror.Fiber(err)
		}
		res, err := svc.ReceiveDelivery(c.UserContext(), lines, auth.Actor(c), "Delivery-"+uuid.NewString())
		if err != nil {
			return apperror.Fiber(err)
		}
		status := fiber.StatusCreated
		if len(res.Entries) == 0 {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(res)
	}
}
