package settlement

import (
	"pos-backend/internal/apperror"
	"pos-backend/internal/auth"
	"pos-backend/internal/inventory"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CartRequest struct {
	Lines         []inventory.CartLine `json:"lines"`
	CustomerName  string               `json:"customer_name"`
	PaymentMethod string               `json:"payment_method"`
}

type RequirementResponse struct {
	IngredientID uint            `json:"ingredient_id"`
	Ingredient   string          `json:"ingredient"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Unit         string          `json:"unit"`
	Products     []string        `json:"products"`
}

type CheckResponse struct {
	OK          bool                  `json:"ok"`
	Ingredients []RequirementResponse `json:"ingredients"`
}

// POST /api/sales/check
func CheckHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CartRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		req, err := svc.Check(c.UserContext(), body.Lines)
		if err != nil {
			return apperror.Fiber(err)
		}

		resp := CheckResponse{OK: true, Ingredients: make([]RequirementResponse, 0, len(req.Ingredients))}
		for _, r := range req.Ingredients {
			resp.Ingredients = append(resp.Ingredients, RequirementResponse{
				IngredientID: r.Ingredient.ID,
				Ingredient:   r.Ingredient.Name,
				Required:     r.Quantity,
				Available:    r.Ingredient.MainStock,
				Unit:         r.Ingredient.Unit,
				Products:     r.Products,
			})
		}
		return c.JSON(resp)
	}
}

// POST /api/sales
func SettleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CartRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		receipt, err := svc.Settle(c.UserContext(), Cart{
			Lines:         body.Lines,
			Actor:         auth.Actor(c),
			CustomerName:  body.CustomerName,
			PaymentMethod: body.PaymentMethod,
		})
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(receipt)
	}
}
