package forecast

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RemotePredictor asks the model service for one product's daily forecast:
//
//	GET {base}/forecasting/api/predict/?item=Latte&days=7&end_date=2025-03-01
//
// end_date is the day before the first predicted day. A 404 means no model.
type RemotePredictor struct {
	BaseURL string
	Timeout time.Duration
}

type remoteResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Predictions []struct {
		Item        string `json:"item"`
		Predictions []struct {
			Date     string `json:"date"`
			Quantity int    `json:"predicted_quantity"`
		} `json:"predictions"`
	} `json:"predictions"`
}

func (r RemotePredictor) Predict(ctx context.Context, product string, days int, start time.Time) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("item", product)
	q.Set("days", strconv.Itoa(days))
	q.Set("end_date", start.AddDate(0, 0, -1).Format(time.DateOnly))
	endpoint := strings.TrimRight(r.BaseURL, "/") + "/forecasting/api/predict/?" + q.Encode()

	timeout, err := r.timeout(ctx)
	if err != nil {
		return nil, err
	}
	agent := fiber.Get(endpoint)
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	var body remoteResponse
	code, _, errs := agent.Struct(&body)
	if code == fiber.StatusNotFound {
		return nil, ErrNoForecast
	}
	if len(errs) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("forecast service: %w", err)
		}
		return nil, fmt.Errorf("forecast service: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK || !body.Success {
		return nil, fmt.Errorf("forecast service: status %d: %s", code, body.Error)
	}

	for _, item := range body.Predictions {
		out := make([]Prediction, 0, len(item.Predictions))
		for _, p := range item.Predictions {
			d, err := time.Parse(time.DateOnly, p.Date)
			if err != nil {
				return nil, fmt.Errorf("forecast service: bad date %q: %w", p.Date, err)
			}
			qty := p.Quantity
			if qty < 0 {
				qty = 0
			}
			out = append(out, Prediction{Date: d, Quantity: qty})
		}
		return out, nil
	}
	return nil, ErrNoForecast
}

// timeout is Timeout cut down to what is left of the ctx deadline.
func (r RemotePredictor) timeout(ctx context.Context) (time.Duration, error) {
	dl, ok := ctx.Deadline()
	if !ok {
		return r.Timeout, nil
	}
	left := time.Until(dl)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	if r.Timeout > 0 && r.Timeout < left {
		return r.Timeout, nil
	}
	return left, nil
}
