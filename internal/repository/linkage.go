package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// LinkRepository manages doctor-patient linkage records
type LinkRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewLinkRepository creates a new LinkRepository
func NewLinkRepository(db *pgxpool.Pool, logger *zap.Logger) *LinkRepository {
	return &LinkRepository{
		db:     db,
		logger: logger,
	}
}

// Exists reports whether the (doctor, patient, report) link is already recorded.
// A nil report matches links recorded without a report.
func (r *LinkRepository) Exists(ctx context.Context, doctorID, patientID string, reportID *string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM doctor_patient_links
			WHERE doctor_id = $1
				AND patient_id = $2
				AND diagnostic_report_id IS NOT DISTINCT FROM $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, doctorID, patientID, reportID).Scan(&exists); err != nil {
		r.logger.Error("failed to check doctor-patient link",
			zap.Error(err),
			zap.String("doctor_id", doctorID),
			zap.String("patient_id", patientID),
		)
		return false, fmt.Errorf("failed to check doctor-patient link: %w", err)
	}

	return exists, nil
}

// Create inserts a link; a concurrent duplicate yields model.ErrDuplicate
func (r *LinkRepository) Create(ctx context.Context, link *model.DoctorPatientLink) error {
	query := `
		INSERT INTO doctor_patient_links (id, doctor_id, patient_id, diagnostic_report_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		link.ID,
		link.DoctorID,
		link.PatientID,
		link.DiagnosticReportID,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicate
		}
		r.logger.Error("failed to create doctor-patient link",
			zap.Error(err),
			zap.String("doctor_id", link.DoctorID),
			zap.String("patient_id", link.PatientID),
		)
		return fmt.Errorf("failed to create doctor-patient link: %w", err)
	}

	return nil
}
