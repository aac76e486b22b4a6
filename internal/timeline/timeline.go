package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// DefaultHistoryLimit bounds History when no limit is given
const DefaultHistoryLimit = 50

// Store persists timeline events
type Store interface {
	InsertTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	ListTimelineEvents(ctx context.Context, patientID string, limit int) ([]model.TimelineEvent, error)
}

// Recorder writes human-readable entries to a patient's care timeline
type Recorder struct {
	store  Store
	logger *zap.Logger
}

// NewRecorder creates a new timeline recorder
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
	}
}

// Record stores a timeline event, filling in the ID and timestamp when missing
func (r *Recorder) Record(ctx context.Context, event *model.TimelineEvent) error {
	if event.PatientID == "" {
		return &model.ValidationError{Fields: []string{"patient_id is required"}}
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	// Log to structured logger first
	fields := []zap.Field{
		zap.String("patient_id", event.PatientID),
		zap.String("event_type", string(event.EventType)),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.AppointmentID != nil {
		fields = append(fields, zap.String("appointment_id", *event.AppointmentID))
	}
	r.logger.Info("Timeline event", fields...)

	if err := r.store.InsertTimelineEvent(ctx, event); err != nil {
		r.logger.Error("Failed to write timeline event",
			zap.Error(err),
			zap.String("patient_id", event.PatientID),
			zap.String("event_type", string(event.EventType)),
		)
		return fmt.Errorf("failed to record timeline event: %w", err)
	}

	return nil
}

// History returns the patient's most recent timeline events
func (r *Recorder) History(ctx context.Context, patientID string, limit int) ([]model.TimelineEvent, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	events, err := r.store.ListTimelineEvents(ctx, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	return events, nil
}
