package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"pos-backend/internal/models"

	"gorm.io/gorm"
)

// DBSink stores events in the audit_logs table.
type DBSink struct {
	DB *gorm.DB
}

func marshalState(v any) string {
	// jsonb columns need "null" rather than an empty string
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (s DBSink) Emit(ctx context.Context, ev Event) error {
	log := models.AuditLog{
		CreatedAt:   ev.OccurredAt,
		UserName:    ev.Actor,
		EntityType:  ev.EntityType,
		EntityID:    ev.EntityID,
		Reference:   ev.Reference,
		Action:      ev.Action,
		Category:    ev.Category,
		Severity:    ev.Severity,
		Description: ev.Description,
		BeforeData:  marshalState(ev.Before),
		AfterData:   marshalState(ev.After),
	}
	if err := s.DB.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("save audit log: %w", err)
	}
	return nil
}
