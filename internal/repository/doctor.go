package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

const doctorColumns = `
	id, full_name, specialty, secondary_specialties, rating, review_count,
	consultation_price, teleconsultation, verified, active, city
`

// DoctorRepository reads and seeds the doctor catalog
type DoctorRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewDoctorRepository creates a new DoctorRepository
func NewDoctorRepository(db *pgxpool.Pool, logger *zap.Logger) *DoctorRepository {
	return &DoctorRepository{
		db:     db,
		logger: logger,
	}
}

func scanDoctor(row pgx.Row) (*model.Doctor, error) {
	var d model.Doctor
	err := row.Scan(
		&d.ID,
		&d.FullName,
		&d.Specialty,
		&d.SecondarySpecialties,
		&d.Rating,
		&d.ReviewCount,
		&d.ConsultationPrice,
		&d.Teleconsultation,
		&d.Verified,
		&d.Active,
		&d.City,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// doctorFilter builds the WHERE clause shared by the PostgreSQL and SQLite stores.
// placeholder renders the n-th bind parameter for the target driver.
func doctorFilter(q model.DoctorQuery, placeholder func(n int) string, secondaryMatch string) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if q.Specialty != "" {
		p := next(strings.ToLower(q.Specialty))
		conds = append(conds, fmt.Sprintf("(lower(specialty) = %s OR "+secondaryMatch+")", p, p))
	}
	if q.City != "" {
		conds = append(conds, fmt.Sprintf("lower(city) = %s", next(strings.ToLower(q.City))))
	}
	if q.MinRating != nil {
		conds = append(conds, fmt.Sprintf("rating >= %s", next(*q.MinRating)))
	}
	if q.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("consultation_price <= %s", next(*q.MaxPrice)))
	}
	if q.TeleconsultationOnly {
		conds = append(conds, "teleconsultation = TRUE")
	}
	if q.ActiveOnly {
		conds = append(conds, "active = TRUE")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListDoctors returns catalog doctors matching the query, best rated first
func (r *DoctorRepository) ListDoctors(ctx context.Context, q model.DoctorQuery) ([]model.Doctor, error) {
	where, args := doctorFilter(q,
		func(n int) string { return fmt.Sprintf("$%d", n) },
		"%s = ANY (SELECT lower(s) FROM unnest(secondary_specialties) AS s)",
	)
	query := `SELECT ` + doctorColumns + ` FROM doctors` + where +
		` ORDER BY rating DESC NULLS LAST, review_count DESC, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list doctors",
			zap.Error(err),
			zap.String("specialty", q.Specialty),
			zap.String("city", q.City),
		)
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer rows.Close()

	doctors := []model.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			r.logger.Error("failed to scan doctor", zap.Error(err))
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating doctors: %w", err)
	}

	return doctors, nil
}

// FindDoctorByID retrieves a doctor by ID
func (r *DoctorRepository) FindDoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	d, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("doctor %s: %w", id, model.ErrNotFound)
		}
		r.logger.Error("failed to find doctor", zap.Error(err), zap.String("doctor_id", id))
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}

	return d, nil
}

// UpsertDoctor inserts or replaces a catalog entry
func (r *DoctorRepository) UpsertDoctor(ctx context.Context, d *model.Doctor) error {
	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			specialty = EXCLUDED.specialty,
			secondary_specialties = EXCLUDED.secondary_specialties,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			consultation_price = EXCLUDED.consultation_price,
			teleconsultation = EXCLUDED.teleconsultation,
			verified = EXCLUDED.verified,
			active = EXCLUDED.active,
			city = EXCLUDED.city,
			updated_at = NOW()
	`

	secondary := d.SecondarySpecialties
	if secondary == nil {
		secondary = []string{}
	}

	_, err := r.db.Exec(ctx, query,
		d.ID,
		d.FullName,
		d.Specialty,
		secondary,
		d.Rating,
		d.ReviewCount,
		d.ConsultationPrice,
		d.Teleconsultation,
		d.Verified,
		d.Active,
		d.City,
	)
	if err != nil {
		r.logger.Error("failed to upsert doctor", zap.Error(err), zap.String("doctor_id", d.ID))
		return fmt.Errorf("failed to upsert doctor: %w", err)
	}

	return nil
}
