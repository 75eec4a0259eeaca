package forecast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Granularity is the length of one projection period.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return g, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Days is the day count one period stands for.
func (g Granularity) Days() int {
	switch g {
	case Weekly:
		return 7
	case Monthly:
		return 30
	default:
		return 1
	}
}

// Periods is how many periods of g cover days, rounding up.
func Periods(days int, g Granularity) int {
	if days <= 0 {
		return 0
	}
	n := g.Days()
	return (days + n - 1) / n
}

// Prediction is one predicted sales quantity. Date is the period's label.
type Prediction struct {
	Date     time.Time `json:"date"`
	Quantity int       `json:"predicted_quantity"`
}

// ErrNoForecast means no model exists for the product; callers skip it.
var ErrNoForecast = errors.New("forecast: no model for product")

// ErrUnavailable wraps predictor failures other than ErrNoForecast.
var ErrUnavailable = errors.New("forecast: predictor unavailable")

// Predictor returns daily predictions for days consecutive days from start.
type Predictor interface {
	Predict(ctx context.Context, product string, days int, start time.Time) ([]Prediction, error)
}

// Aggregate sums daily predictions into calendar buckets. Weekly buckets end on
// Sunday and carry that Sunday's date; monthly buckets carry the first of the month.
func Aggregate(daily []Prediction, g Granularity) []Prediction {
	if g != Weekly && g != Monthly {
		return daily
	}
	var out []Prediction
	for _, p := range daily {
		label := bucket(p.Date, g)
		if n := len(out); n > 0 && out[n-1].Date.Equal(label) {
			out[n-1].Quantity += p.Quantity
			continue
		}
		out = append(out, Prediction{Date: label, Quantity: p.Quantity})
	}
	return out
}

func bucket(d time.Time, g Granularity) time.Time {
	y, m, day := d.Date()
	if g == Monthly {
		return time.Date(y, m, 1, 0, 0, 0, 0, d.Location())
	}
	toSunday := (7 - int(d.Weekday())) % 7
	return time.Date(y, m, day+toSunday, 0, 0, 0, 0, d.Location())
}

// Quantities drops the dates.
func Quantities(preds []Prediction) []float64 {
	out := make([]float64, len(preds))
	for i, p := range preds {
		out[i] = float64(p.Quantity)
	}
	return out
}
