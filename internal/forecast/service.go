package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-backend/internal/apperror"

	"go.uber.org/zap"
)

// MaxDays caps a predictor-driven projection horizon.
const MaxDays = 90

type Service struct {
	snap      *Snapshot
	predictor Predictor // nil when no model service is configured
	log       *zap.Logger
}

func NewService(snap *Snapshot, predictor Predictor, log *zap.Logger) *Service {
	return &Service{snap: snap, predictor: predictor, log: log.Named("forecast")}
}

func (s *Service) HasPredictor() bool { return s.predictor != nil }

// Project runs the projection against the current catalog.
func (s *Service) Project(ctx context.Context, in Input) ([]Projection, error) {
	if in.Horizon < 0 {
		return nil, apperror.Validationf("horizon", "must not be negative")
	}
	for name, series := range in.Demand {
		for _, q := range series {
			if q < 0 {
				return nil, apperror.Validationf("demand "+name, "predicted quantities must not be negative")
			}
		}
	}
	ingredients, err := s.snap.Ingredients(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.snap.ActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	return Project(in, ingredients, products), nil
}

type Report struct {
	Start       time.Time               `json:"start"`
	Days        int                     `json:"days"`
	Granularity Granularity             `json:"period"`
	Predictions map[string][]Prediction `json:"predictions"`
	Inventory   []Projection            `json:"inventory_forecast"`
}

// ProjectFromPredictor forecasts every active product for days days from start,
// buckets the predictions by g and projects ingredient stock over them.
func (s *Service) ProjectFromPredictor(ctx context.Context, days int, g Granularity, start time.Time) (*Report, error) {
	if s.predictor == nil {
		return nil, errors.New("forecast: no predictor configured")
	}
	if days < 1 || days > MaxDays {
		return nil, apperror.Validationf("days", "must be between 1 and %d", MaxDays)
	}

	ingredients, err := s.snap.Ingredients(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.snap.ActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	rep := &Report{Start: start, Days: days, Granularity: g, Predictions: map[string][]Prediction{}}
	demand := map[string][]float64{}
	for _, p := range products {
		daily, err := s.predictor.Predict(ctx, p.Name, days, start)
		if errors.Is(err, ErrNoForecast) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w: %w", p.Name, ErrUnavailable, err)
		}
		preds := Aggregate(daily, g)
		rep.Predictions[p.Name] = preds
		demand[p.Name] = Quantities(preds)
	}
	s.log.Debug("predictions loaded",
		zap.Int("products", len(products)),
		zap.Int("forecast", len(demand)),
		zap.String("period", string(g)))

	rep.Inventory = Project(Input{Demand: demand, Granularity: g, Horizon: Periods(days, g)}, ingredients, products)
	return rep, nil
}
