package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS doctors (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	specialty TEXT NOT NULL,
	secondary_specialties TEXT NOT NULL DEFAULT '[]',
	rating REAL,
	review_count INTEGER NOT NULL DEFAULT 0,
	consultation_price REAL,
	teleconsultation INTEGER NOT NULL DEFAULT 0,
	verified INTEGER NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 1,
	city TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	doctor_id TEXT NOT NULL,
	patient_id TEXT NOT NULL,
	appointment_date TEXT NOT NULL,
	start_minute INTEGER NOT NULL CHECK (start_minute >= 0),
	duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
	appointment_type TEXT NOT NULL,
	status TEXT NOT NULL,
	diagnostic_report_id TEXT,
	pre_analysis_id TEXT,
	payment_status TEXT NOT NULL DEFAULT 'pending',
	payment_method TEXT,
	report_shared INTEGER NOT NULL DEFAULT 0,
	reason TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date ON appointments (doctor_id, appointment_date);

CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_active_slot
	ON appointments (doctor_id, appointment_date, start_minute)
	WHERE status IN ('scheduled', 'confirmed');

CREATE TABLE IF NOT EXISTS doctor_patient_links (
	id TEXT PRIMARY KEY,
	doctor_id TEXT NOT NULL,
	patient_id TEXT NOT NULL,
	diagnostic_report_id TEXT,
	created_at TEXT NOT NULL
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
	occurred_at TEXT NOT NULL,
	metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_timeline_patient ON patient_timeline_events (patient_id, occurred_at);
`

// SQLiteStore is the embedded single-node store. It keeps one open connection, so
// every transaction is serialised and CreateIfSlotFree is atomic without extra locking.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the database at path and applies the schema
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("sqlite store opened", zap.String("path", path))

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// sqliteTimeLayout is fixed width so that text ordering matches time ordering
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteAppointment(row scanner) (*model.Appointment, error) {
	var (
		appt                                    model.Appointment
		date, apptType, status, payStatus       string
		createdAt, updatedAt                    string
		reportID, preAnalysisID, method, reason sql.NullString
		start                                   int
	)
	err := row.Scan(
		&appt.ID,
		&appt.DoctorID,
		&appt.PatientID,
		&date,
		&start,
		&appt.DurationMinutes,
		&apptType,
		&status,
		&reportID,
		&preAnalysisID,
		&payStatus,
		&method,
		&appt.ReportShared,
		&reason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if appt.Date, err = time.Parse(model.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid appointment_date %q: %w", date, err)
	}
	if appt.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if appt.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}
	appt.StartTime = model.Clock(start)
	appt.Type = model.AppointmentType(apptType)
	appt.Status = model.AppointmentStatus(status)
	appt.PaymentStatus = model.PaymentStatus(payStatus)
	appt.DiagnosticReportID = stringPtr(reportID)
	appt.PreAnalysisID = stringPtr(preAnalysisID)
	appt.PaymentMethod = stringPtr(method)
	appt.Reason = stringPtr(reason)
	return &appt, nil
}

// FindActiveByDoctorAndDate returns the scheduled and confirmed appointments of a doctor on a date
func (s *SQLiteStore) FindActiveByDoctorAndDate(ctx context.Context, doctorID string, date time.Time) ([]model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = ? AND appointment_date = ? AND status IN ('scheduled', 'confirmed')
		ORDER BY start_minute
	`

	rows, err := s.db.QueryContext(ctx, query, doctorID, date.Format(model.DateLayout))
	if err != nil {
		s.logger.Error("failed to find appointments", zap.Error(err), zap.String("doctor_id", doctorID))
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer rows.Close()

	appointments := []model.Appointment{}
	for rows.Next() {
		appt, err := scanSQLiteAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, *appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

// CreateIfSlotFree inserts the appointment unless an active one of the same doctor and date overlaps it
func (s *SQLiteStore) CreateIfSlotFree(ctx context.Context, appt *model.Appointment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	date := appt.Date.Format(model.DateLayout)
	start := int(appt.StartTime)

	var taken bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = ?1
				AND appointment_date = ?2
				AND status IN ('scheduled', 'confirmed')
				AND start_minute < ?3 + ?4
				AND ?3 < start_minute + duration_minutes
		)
	`, appt.DoctorID, date, start, appt.DurationMinutes).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return model.ErrSlotConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		appt.ID,
		appt.DoctorID,
		appt.PatientID,
		date,
		start,
		appt.DurationMinutes,
		string(appt.Type),
		string(appt.Status),
		nullString(appt.DiagnosticReportID),
		nullString(appt.PreAnalysisID),
		string(appt.PaymentStatus),
		nullString(appt.PaymentMethod),
		appt.ReportShared,
		nullString(appt.Reason),
		formatTime(appt.CreatedAt),
		formatTime(appt.UpdatedAt),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return model.ErrSlotConflict
		}
		s.logger.Error("failed to create appointment",
			zap.Error(err),
			zap.String("appointment_id", appt.ID),
			zap.String("doctor_id", appt.DoctorID),
		)
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointment: %w", err)
	}
	return nil
}

// FindByID retrieves an appointment by ID
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)

	appt, err := scanSQLiteAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment %s: %w", id, model.ErrNotFound)
		}
		s.logger.Error("failed to find appointment", zap.Error(err), zap.String("appointment_id", id))
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return appt, nil
}

func scanSQLiteDoctor(row scanner) (*model.Doctor, error) {
	var (
		d             model.Doctor
		secondary     string
		rating, price sql.NullFloat64
	)
	err := row.Scan(
		&d.ID,
		&d.FullName,
		&d.Specialty,
		&secondary,
		&rating,
		&d.ReviewCount,
		&price,
		&d.Teleconsultation,
		&d.Verified,
		&d.Active,
		&d.City,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(secondary), &d.SecondarySpecialties); err != nil {
		return nil, fmt.Errorf("invalid secondary_specialties: %w", err)
	}
	d.Rating = floatPtr(rating)
	d.ConsultationPrice = floatPtr(price)
	return &d, nil
}

// ListDoctors returns catalog doctors matching the query, best rated first
func (s *SQLiteStore) ListDoctors(ctx context.Context, q model.DoctorQuery) ([]model.Doctor, error) {
	where, args := doctorFilter(q,
		func(n int) string { return fmt.Sprintf("?%d", n) },
		"EXISTS (SELECT 1 FROM json_each(secondary_specialties) WHERE lower(json_each.value) = %s)",
	)
	query := `SELECT ` + doctorColumns + ` FROM doctors` + where +
		` ORDER BY rating IS NULL, rating DESC, review_count DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list doctors", zap.Error(err))
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer rows.Close()

	doctors := []model.Doctor{}
	for rows.Next() {
		d, err := scanSQLiteDoctor(rows)
		if err != nil {
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
func (s *SQLiteStore) FindDoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = ?`, id)

	d, err := scanSQLiteDoctor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("doctor %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}
	return d, nil
}

// UpsertDoctor inserts or replaces a catalog entry
func (s *SQLiteStore) UpsertDoctor(ctx context.Context, d *model.Doctor) error {
	secondary := d.SecondarySpecialties
	if secondary == nil {
		secondary = []string{}
	}
	encoded, err := json.Marshal(secondary)
	if err != nil {
		return fmt.Errorf("failed to encode secondary specialties: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO doctors (`+doctorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			full_name = excluded.full_name,
			specialty = excluded.specialty,
			secondary_specialties = excluded.secondary_specialties,
			rating = excluded.rating,
			review_count = excluded.review_count,
			consultation_price = excluded.consultation_price,
			teleconsultation = excluded.teleconsultation,
			verified = excluded.verified,
			active = excluded.active,
			city = excluded.city
	`,
		d.ID,
		d.FullName,
		d.Specialty,
		string(encoded),
		nullFloat(d.Rating),
		d.ReviewCount,
		nullFloat(d.ConsultationPrice),
		d.Teleconsultation,
		d.Verified,
		d.Active,
		d.City,
	)
	if err != nil {
		s.logger.Error("failed to upsert doctor", zap.Error(err), zap.String("doctor_id", d.ID))
		return fmt.Errorf("failed to upsert doctor: %w", err)
	}
	return nil
}

// Links returns the doctor-patient link store backed by this database
func (s *SQLiteStore) Links() *SQLiteLinkStore {
	return &SQLiteLinkStore{db: s.db, logger: s.logger}
}

// SQLiteLinkStore manages doctor-patient linkage records in SQLite
type SQLiteLinkStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Exists reports whether the (doctor, patient, report) link is already recorded
func (l *SQLiteLinkStore) Exists(ctx context.Context, doctorID, patientID string, reportID *string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM doctor_patient_links
			WHERE doctor_id = ? AND patient_id = ? AND diagnostic_report_id IS ?
		)
	`, doctorID, patientID, nullString(reportID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check doctor-patient link: %w", err)
	}
	return exists, nil
}

// Create inserts a link; a duplicate yields model.ErrDuplicate
func (l *SQLiteLinkStore) Create(ctx context.Context, link *model.DoctorPatientLink) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO doctor_patient_links (id, doctor_id, patient_id, diagnostic_report_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, link.ID, link.DoctorID, link.PatientID, nullString(link.DiagnosticReportID), formatTime(link.CreatedAt))
	if err != nil {
		if isSQLiteUnique(err) {
			return model.ErrDuplicate
		}
		l.logger.Error("failed to create doctor-patient link",
			zap.Error(err),
			zap.String("doctor_id", link.DoctorID),
			zap.String("patient_id", link.PatientID),
		)
		return fmt.Errorf("failed to create doctor-patient link: %w", err)
	}
	return nil
}

// InsertTimelineEvent stores one timeline event
func (s *SQLiteStore) InsertTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	var metadata sql.NullString
	if event.Metadata != nil {
		encoded, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode timeline metadata: %w", err)
		}
		metadata = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patient_timeline_events (
			id, patient_id, event_type, title, description, appointment_id, occurred_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.PatientID,
		string(event.EventType),
		event.Title,
		event.Description,
		nullString(event.AppointmentID),
		formatTime(event.OccurredAt),
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timeline event: %w", err)
	}
	return nil
}

// ListTimelineEvents returns a patient's timeline, newest first
func (s *SQLiteStore) ListTimelineEvents(ctx context.Context, patientID string, limit int) ([]model.TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, event_type, title, description, appointment_id, occurred_at, metadata
		FROM patient_timeline_events
		WHERE patient_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline events: %w", err)
	}
	defer rows.Close()

	events := []model.TimelineEvent{}
	for rows.Next() {
		var (
			e                       model.TimelineEvent
			eventType, occurredAt   string
			appointmentID, metadata sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.PatientID, &eventType, &e.Title, &e.Description, &appointmentID, &occurredAt, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		if e.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, fmt.Errorf("invalid occurred_at %q: %w", occurredAt, err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("invalid timeline metadata: %w", err)
			}
		}
		e.EventType = model.TimelineEventType(eventType)
		e.AppointmentID = stringPtr(appointmentID)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline events: %w", err)
	}

	return events, nil
}
