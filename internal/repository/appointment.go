package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const appointmentColumns = `
	id, doctor_id, patient_id, appointment_date, start_minute, duration_minutes,
	appointment_type, status, diagnostic_report_id, pre_analysis_id,
	payment_status, payment_method, report_shared, reason,
	created_at, updated_at
`

// AppointmentRepository manages appointments in PostgreSQL
type AppointmentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewAppointmentRepository creates a new AppointmentRepository
func NewAppointmentRepository(db *pgxpool.Pool, logger *zap.Logger) *AppointmentRepository {
	return &AppointmentRepository{
		db:     db,
		logger: logger,
	}
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		appt                        model.Appointment
		start                       int
		apptType, status, payStatus string
	)
	err := row.Scan(
		&appt.ID,
		&appt.DoctorID,
		&appt.PatientID,
		&appt.Date,
		&start,
		&appt.DurationMinutes,
		&apptType,
		&status,
		&appt.DiagnosticReportID,
		&appt.PreAnalysisID,
		&payStatus,
		&appt.PaymentMethod,
		&appt.ReportShared,
		&appt.Reason,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	appt.StartTime = model.Clock(start)
	appt.Type = model.AppointmentType(apptType)
	appt.Status = model.AppointmentStatus(status)
	appt.PaymentStatus = model.PaymentStatus(payStatus)
	return &appt, nil
}

// FindActiveByDoctorAndDate returns the scheduled and confirmed appointments of a doctor on a date
func (r *AppointmentRepository) FindActiveByDoctorAndDate(ctx context.Context, doctorID string, date time.Time) ([]model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
			AND appointment_date = $2
			AND status IN ('scheduled', 'confirmed')
		ORDER BY start_minute
	`

	rows, err := r.db.Query(ctx, query, doctorID, date)
	if err != nil {
		r.logger.Error("failed to find appointments",
			zap.Error(err),
			zap.String("doctor_id", doctorID),
			zap.String("date", date.Format(model.DateLayout)),
		)
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer rows.Close()

	appointments := []model.Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			r.logger.Error("failed to scan appointment", zap.Error(err))
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

// CreateIfSlotFree inserts the appointment unless an active appointment of the same
// doctor and date overlaps it. The overlap check and the insert share one transaction
// holding an advisory lock on (doctor, date); the partial unique index on active slots
// catches anything that bypasses this path.
func (r *AppointmentRepository) CreateIfSlotFree(ctx context.Context, appt *model.Appointment) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err), zap.String("appointment_id", appt.ID))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := appt.DoctorID + "|" + appt.Date.Format(model.DateLayout)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		r.logger.Error("failed to acquire slot lock", zap.Error(err), zap.String("doctor_id", appt.DoctorID))
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
				AND appointment_date = $2
				AND status IN ('scheduled', 'confirmed')
				AND start_minute < $3::int + $4::int
				AND $3::int < start_minute + duration_minutes
		)
	`, appt.DoctorID, appt.Date, int(appt.StartTime), appt.DurationMinutes).Scan(&taken)
	if err != nil {
		r.logger.Error("failed to check slot", zap.Error(err), zap.String("doctor_id", appt.DoctorID))
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return model.ErrSlotConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		appt.ID,
		appt.DoctorID,
		appt.PatientID,
		appt.Date,
		int(appt.StartTime),
		appt.DurationMinutes,
		string(appt.Type),
		string(appt.Status),
		appt.DiagnosticReportID,
		appt.PreAnalysisID,
		string(appt.PaymentStatus),
		appt.PaymentMethod,
		appt.ReportShared,
		appt.Reason,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlotConflict
		}
		r.logger.Error("failed to create appointment",
			zap.Error(err),
			zap.String("appointment_id", appt.ID),
			zap.String("doctor_id", appt.DoctorID),
			zap.String("patient_id", appt.PatientID),
		)
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlotConflict
		}
		r.logger.Error("failed to commit appointment", zap.Error(err), zap.String("appointment_id", appt.ID))
		return fmt.Errorf("failed to commit appointment: %w", err)
	}

	return nil
}

// FindByID retrieves an appointment by ID
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("appointment %s: %w", id, model.ErrNotFound)
		}
		r.logger.Error("failed to find appointment", zap.Error(err), zap.String("appointment_id", id))
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return appt, nil
}
