package model

import "time"

// Severity represents the triage level of a diagnostic report
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Normalize returns the severity, defaulting to medium for empty or unknown values
func (s Severity) Normalize() Severity {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return s
	default:
		return SeverityMedium
	}
}

// Doctor represents a catalog entry. The catalog owns it; the booking core only reads it.
type Doctor struct {
	ID                   string   `json:"id"`
	FullName             string   `json:"full_name"`
	Specialty            string   `json:"specialty"`
	SecondarySpecialties []string `json:"secondary_specialties,omitempty"`
	Rating               *float64 `json:"rating,omitempty"`
	ReviewCount          int      `json:"review_count"`
	ConsultationPrice    *float64 `json:"consultation_price,omitempty"`
	Teleconsultation     bool     `json:"teleconsultation"`
	Verified             bool     `json:"verified"`
	Active               bool     `json:"active"`
	City                 string   `json:"city,omitempty"`
}

// DiagnosticReport is the output of the AI pre-analysis pipeline
type DiagnosticReport struct {
	ID               string   `json:"id,omitempty"`
	PatientID        string   `json:"patient_id,omitempty"`
	PrimaryDiagnosis string   `json:"primary_diagnosis"`
	Severity         Severity `json:"severity,omitempty"`
	Confidence       *int     `json:"confidence,omitempty"`
}

// PatientProfile carries optional patient context used for filtering candidates
type PatientProfile struct {
	ID   string `json:"id,omitempty"`
	City string `json:"city,omitempty"`
}

// MatchCriteria records which recommendation criteria a doctor satisfies
type MatchCriteria struct {
	SpecialtyMatch    bool `json:"specialty_match"`
	SeverityMatch     bool `json:"severity_match"`
	AvailabilityMatch bool `json:"availability_match"`
	RatingMatch       bool `json:"rating_match"`
}

// RecommendationResult is a scored doctor for one recommendation call
type RecommendationResult struct {
	Doctor        Doctor        `json:"doctor"`
	Score         int           `json:"score"`
	Reason        string        `json:"reason"`
	MatchCriteria MatchCriteria `json:"match_criteria"`
}

// SortKey selects the ordering applied by SortRecommendations
type SortKey string

const (
	SortByScore  SortKey = "score"
	SortByRating SortKey = "rating"
	SortByPrice  SortKey = "price"
)

// RecommendationFilters narrows the candidate set and bounds the output
type RecommendationFilters struct {
	Specialty            string   `json:"specialty,omitempty"`
	City                 string   `json:"city,omitempty"`
	MinRating            *float64 `json:"min_rating,omitempty"`
	MaxPrice             *float64 `json:"max_price,omitempty"`
	TeleconsultationOnly bool     `json:"teleconsultation_only,omitempty"`
	Limit                int      `json:"limit,omitempty"`
	SortBy               SortKey  `json:"sort_by,omitempty"`
}

// DoctorQuery is the catalog read filter
type DoctorQuery struct {
	Specialty            string
	City                 string
	MinRating            *float64
	MaxPrice             *float64
	TeleconsultationOnly bool
	ActiveOnly           bool
}

// TimeSlot is a computed view over appointments; it is never persisted
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AppointmentType represents the consultation modality
type AppointmentType string

const (
	AppointmentTypeTeleconsultation AppointmentType = "teleconsultation"
	AppointmentTypeInPerson         AppointmentType = "in_person"
	AppointmentTypeFollowUp         AppointmentType = "follow_up"
	AppointmentTypeLab              AppointmentType = "lab"
)

// IsValid reports whether the type is one of the known appointment types
func (t AppointmentType) IsValid() bool {
	switch t {
	case AppointmentTypeTeleconsultation, AppointmentTypeInPerson, AppointmentTypeFollowUp, AppointmentTypeLab:
		return true
	}
	return false
}

// AppointmentStatus represents the lifecycle state of an appointment.
// The booking core only ever creates appointments in StatusScheduled.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// BlocksSlot reports whether an appointment in this status occupies its time range
func (s AppointmentStatus) BlocksSlot() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// PaymentStatus is payment metadata; no payment is processed here
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Appointment represents a booked consultation
type Appointment struct {
	ID                 string            `json:"id"`
	DoctorID           string            `json:"doctor_id"`
	PatientID          string            `json:"patient_id"`
	Date               time.Time         `json:"date"`
	StartTime          Clock             `json:"start_time"`
	DurationMinutes    int               `json:"duration_minutes"`
	Type               AppointmentType   `json:"type"`
	Status             AppointmentStatus `json:"status"`
	DiagnosticReportID *string           `json:"diagnostic_report_id,omitempty"`
	PreAnalysisID      *string           `json:"pre_analysis_id,omitempty"`
	PaymentStatus      PaymentStatus     `json:"payment_status"`
	PaymentMethod      *string           `json:"payment_method,omitempty"`
	ReportShared       bool              `json:"report_shared"`
	Reason             *string           `json:"reason,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// EndTime returns the exclusive end of the appointment interval
func (a Appointment) EndTime() Clock {
	return AddMinutes(a.StartTime, a.DurationMinutes)
}

// BookingRequest is the input to the booking orchestrator.
// Workflow identifiers are carried explicitly instead of being read from ambient client state.
type BookingRequest struct {
	PatientID          string
	DoctorID           string
	Date               string // YYYY-MM-DD
	Time               string // HH:MM
	DurationMinutes    int
	Type               AppointmentType
	DiagnosticReportID *string
	PreAnalysisID      *string
	PaymentStatus      PaymentStatus
	PaymentMethod      *string
	Reason             *string
}

// DoctorPatientLink records that a doctor has access to a patient's case
type DoctorPatientLink struct {
	ID                 string    `json:"id"`
	DoctorID           string    `json:"doctor_id"`
	PatientID          string    `json:"patient_id"`
	DiagnosticReportID *string   `json:"diagnostic_report_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// TimelineEventType represents the kind of patient timeline record
type TimelineEventType string

const (
	TimelineAppointmentBooked TimelineEventType = "appointment_booked"
)

// TimelineEvent is a human-readable entry on the patient's care timeline
type TimelineEvent struct {
	ID            string                 `json:"id"`
	PatientID     string                 `json:"patient_id"`
	EventType     TimelineEventType      `json:"event_type"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	AppointmentID *string                `json:"appointment_id,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// AppointmentEvent is published after an appointment is persisted
type AppointmentEvent struct {
	Type               string          `json:"type"`
	AppointmentID      string          `json:"appointment_id"`
	DoctorID           string          `json:"doctor_id"`
	PatientID          string          `json:"patient_id"`
	Date               string          `json:"date"`
	StartTime          string          `json:"start_time"`
	DurationMinutes    int             `json:"duration_minutes"`
	AppointmentType    AppointmentType `json:"appointment_type"`
	DiagnosticReportID *string         `json:"diagnostic_report_id,omitempty"`
	OccurredAt         time.Time       `json:"occurred_at"`
}

// EventAppointmentCreated is the AppointmentEvent type emitted by the booking orchestrator
const EventAppointmentCreated = "appointment.created"

// DateLayout is the wire format for appointment dates
const DateLayout = "2006-01-02"
