package forecast

import (
	"errors"
	"time"

	"pos-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

type ProjectRequest struct {
	Demand  map[string][]float64 `json:"demand"`
	Period  string               `json:"period"`
	Horizon int                  `json:"horizon"`
}

// POST /api/forecast/inventory
func ProjectHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProjectRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		g, err := ParseGranularity(body.Period)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		out, err := svc.Project(c.UserContext(), Input{Demand: body.Demand, Granularity: g, Horizon: body.Horizon})
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.JSON(fiber.Map{"period": g, "inventory_forecast": out})
	}
}

// GET /api/forecast/inventory?days=7&period=weekly&end_date=2025-03-01
// Forecast starts the day after end_date (default today).
func PredictHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !svc.HasPredictor() {
			return fiber.NewError(fiber.StatusServiceUnavailable, "forecast service not configured")
		}
		g, err := ParseGranularity(c.Query("period"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		days := c.QueryInt("days", 7)

		today := time.Now()
		if v := c.Query("end_date"); v != "" {
			if today, err = time.Parse(time.DateOnly, v); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
			}
		}
		y, m, d := today.Date()
		start := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)

		rep, err := svc.ProjectFromPredictor(c.UserContext(), days, g, start)
		if errors.Is(err, ErrUnavailable) {
			return fiber.NewError(fiber.StatusBadGateway, "forecast service unavailable")
		}
		if err != nil {
			return apperror.Fiber(err)
		}
		return c.JSON(rep)
	}
}
