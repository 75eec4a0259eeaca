package audit

import (
	"context"
	"time"

	"pos-backend/internal/models"

	"go.uber.org/zap"
)

const (
	CategoryInventory = "inventory"
	CategorySales     = "sales"
	CategoryAdmin     = "admin"

	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Event describes one committed business operation.
type Event struct {
	Actor       string             `json:"actor"`
	Action      models.AuditAction `json:"action"`
	Category    string             `json:"category"`
	Severity    string             `json:"severity"`
	Description string             `json:"description"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Reference   string             `json:"reference,omitempty"`
	Before      any                `json:"before,omitempty"`
	After       any                `json:"after,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// Publisher fans events out to every sink. Sink failures are logged and dropped:
// events are only published after the operation committed.
type Publisher struct {
	sinks []Sink
	log   *zap.Logger
}

func NewPublisher(log *zap.Logger, sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks, log: log.Named("audit")}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	if ev.Severity == "" {
		ev.Severity = SeverityInfo
	}
	for _, s := range p.sinks {
		if err := s.Emit(ctx, ev); err != nil {
			p.log.Warn("audit sink failed",
				zap.String("action", string(ev.Action)),
				zap.String("reference", ev.Reference),
				zap.Error(err))
		}
	}
}

// LogSink writes events to the structured log.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Emit(_ context.Context, ev Event) error {
	s.Log.Info(ev.Description,
		zap.String("action", string(ev.Action)),
		zap.String("actor", ev.Actor),
		zap.String("entity_type", ev.EntityType),
		zap.Uint("entity_id", ev.EntityID),
		zap.String("reference", ev.Reference))
	return nil
}
