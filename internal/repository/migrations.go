package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// postgresSchema is idempotent and safe to apply on every start.
// uq_appointments_active_slot is the last line of defence against double booking.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS doctors (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	specialty TEXT NOT NULL,
	secondary_specialties TEXT[] NOT NULL DEFAULT '{}',
	rating DOUBLE PRECISION,
	review_count INTEGER NOT NULL DEFAULT 0,
	consultation_price DOUBLE PRECISION,
	teleconsultation BOOLEAN NOT NULL DEFAULT FALSE,
	verified BOOLEAN NOT NULL DEFAULT FALSE,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	city TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_doctors_specialty ON doctors (lower(specialty));

CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	doctor_id TEXT NOT NULL,
	patient_id TEXT NOT NULL,
	appointment_date DATE NOT NULL,
	start_minute INTEGER NOT NULL CHECK (start_minute >= 0),
	duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
	appointment_type TEXT NOT NULL,
	status TEXT NOT NULL,
	diagnostic_report_id TEXT,
	pre_analysis_id TEXT,
	payment_status TEXT NOT NULL DEFAULT 'pending',
	payment_method TEXT,
	report_shared BOOLEAN NOT NULL DEFAULT FALSE,
	reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date ON appointments (doctor_id, appointment_date);
CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments (patient_id);

CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_active_slot
	ON appointments (doctor_id, appointment_date, start_minute)
	WHERE status IN ('scheduled', 'confirmed');

CREATE TABLE IF NOT EXISTS doctor_patient_links (
	id TEXT PRIMARY KEY,
	doctor_id TEXT NOT NULL,
	patient_id TEXT NOT NULL,
	diagnostic_report_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_doctor_patient_links
	ON doctor_patient_links (doctor_id, patient_id, COALESCE(diagnostic_report_id, ''));

CREATE TABLE IF NOT EXISTS patient_timeline_events (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	appointment_id TEXT,
	occurred_at TIMESTAMPTZ NOT NULL,
	metadata JSONB
);

CREATE INDEX IF NOT EXISTS idx_timeline_patient ON patient_timeline_events (patient_id, occurred_at DESC);
`

// Migrate applies the PostgreSQL schema
func Migrate(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		logger.Error("failed to apply schema", zap.Error(err))
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("database schema applied")
	return nil
}
