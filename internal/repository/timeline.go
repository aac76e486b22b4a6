package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// TimelineRepository stores patient timeline events in PostgreSQL
type TimelineRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewTimelineRepository creates a new TimelineRepository
func NewTimelineRepository(db *pgxpool.Pool, logger *zap.Logger) *TimelineRepository {
	return &TimelineRepository{
		db:     db,
		logger: logger,
	}
}

// InsertTimelineEvent stores one timeline event
func (r *TimelineRepository) InsertTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	query := `
		INSERT INTO patient_timeline_events (
			id, patient_id, event_type, title, description,
			appointment_id, occurred_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.PatientID,
		string(event.EventType),
		event.Title,
		event.Description,
		event.AppointmentID,
		event.OccurredAt,
		event.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timeline event: %w", err)
	}

	return nil
}

// ListTimelineEvents returns a patient's timeline, newest first
func (r *TimelineRepository) ListTimelineEvents(ctx context.Context, patientID string, limit int) ([]model.TimelineEvent, error) {
	query := `
		SELECT id, patient_id, event_type, title, description, appointment_id, occurred_at, metadata
		FROM patient_timeline_events
		WHERE patient_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, patientID, limit)
	if err != nil {
		r.logger.Error("failed to list timeline events", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to list timeline events: %w", err)
	}
	defer rows.Close()

	events := []model.TimelineEvent{}
	for rows.Next() {
		var (
			e         model.TimelineEvent
			eventType string
		)
		if err := rows.Scan(&e.ID, &e.PatientID, &eventType, &e.Title, &e.Description, &e.AppointmentID, &e.OccurredAt, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		e.EventType = model.TimelineEventType(eventType)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline events: %w", err)
	}

	return events, nil
}
