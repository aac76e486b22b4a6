package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/metrics"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// AppointmentStore persists appointments
type AppointmentStore interface {
	AppointmentReader
	// CreateIfSlotFree inserts appt unless an active appointment of the same doctor and
	// date overlaps it; the check and the insert are atomic. Returns model.ErrSlotConflict otherwise.
	CreateIfSlotFree(ctx context.Context, appt *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
}

// DoctorLookup resolves a single doctor from the catalog
type DoctorLookup interface {
	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
}

// ResolveBookableDoctor returns the doctor if it exists and accepts bookings.
// Unknown and inactive doctors are model.ErrNotFound; any other lookup failure
// is reported as model.ErrUpstreamUnavailable.
func ResolveBookableDoctor(ctx context.Context, doctors DoctorLookup, id string) (*model.Doctor, error) {
	doctor, err := doctors.GetDoctor(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrUpstreamUnavailable):
		return nil, err
	default:
		return nil, fmt.Errorf("failed to resolve doctor %s: %w: %w", id, model.ErrUpstreamUnavailable, err)
	}

	if doctor == nil {
		return nil, fmt.Errorf("doctor %s: %w", id, model.ErrNotFound)
	}
	if !doctor.Active {
		return nil, fmt.Errorf("doctor %s is not accepting bookings: %w", id, model.ErrNotFound)
	}
	return doctor, nil
}

// LinkStore stores doctor-patient linkage records
type LinkStore interface {
	Exists(ctx context.Context, doctorID, patientID string, reportID *string) (bool, error)
	// Create returns model.ErrDuplicate when the link already exists
	Create(ctx context.Context, link *model.DoctorPatientLink) error
}

// TimelineWriter records patient timeline entries
type TimelineWriter interface {
	Record(ctx context.Context, event *model.TimelineEvent) error
}

// EventPublisher emits appointment domain events
type EventPublisher interface {
	PublishAppointmentCreated(ctx context.Context, event model.AppointmentEvent) error
}

// Booking outcomes reported to metrics
const (
	outcomeCreated  = "created"
	outcomeInvalid  = "invalid"
	outcomeConflict = "conflict"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Best-effort steps run after the appointment is persisted
const (
	stepLinkage  = "linkage"
	stepTimeline = "timeline"
	stepEvent    = "event"
)

// BookingDeps groups the collaborators of the booking orchestrator
type BookingDeps struct {
	Appointments AppointmentStore
	Availability *AvailabilityService
	Doctors      DoctorLookup
	Links        LinkStore
	Timeline     TimelineWriter
	Events       EventPublisher
	Metrics      *metrics.Collector
}

// BookingService validates, persists and records appointments
type BookingService struct {
	appointments AppointmentStore
	availability *AvailabilityService
	doctors      DoctorLookup
	links        LinkStore
	timeline     TimelineWriter
	events       EventPublisher
	metrics      *metrics.Collector
	locks        *keyedLocker
	now          func() time.Time
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(deps BookingDeps, logger *zap.Logger) *BookingService {
	return &BookingService{
		appointments: deps.Appointments,
		availability: deps.Availability,
		doctors:      deps.Doctors,
		links:        deps.Links,
		timeline:     deps.Timeline,
		events:       deps.Events,
		metrics:      deps.Metrics,
		locks:        newKeyedLocker(),
		now:          time.Now,
		logger:       logger,
	}
}

// validatedBooking is a BookingRequest with parsed and defaulted fields
type validatedBooking struct {
	date     time.Time
	start    model.Clock
	duration int
	apptType model.AppointmentType
	payment  model.PaymentStatus
}

func (s *BookingService) validate(req model.BookingRequest) (*validatedBooking, error) {
	var fields []string
	v := &validatedBooking{
		duration: req.DurationMinutes,
		apptType: req.Type,
		payment:  req.PaymentStatus,
	}

	if strings.TrimSpace(req.PatientID) == "" {
		fields = append(fields, "patient_id is required")
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		fields = append(fields, "doctor_id is required")
	}

	if req.Date == "" {
		fields = append(fields, "date is required")
	} else if d, err := time.Parse(model.DateLayout, req.Date); err != nil {
		fields = append(fields, "date must be YYYY-MM-DD")
	} else {
		v.date = d
	}

	if req.Time == "" {
		fields = append(fields, "time is required")
	} else if c, err := model.ParseClock(req.Time); err != nil {
		fields = append(fields, "time must be HH:MM")
	} else {
		v.start = c
	}

	if v.duration == 0 {
		v.duration = s.availability.SlotMinutes()
	} else if err := s.availability.CheckDuration(v.duration); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			fields = append(fields, ve.Fields...)
		}
	}

	if v.apptType == "" {
		v.apptType = model.AppointmentTypeTeleconsultation
	} else if !v.apptType.IsValid() {
		fields = append(fields, fmt.Sprintf("type %q is not supported", req.Type))
	}

	switch v.payment {
	case "":
		v.payment = model.PaymentPending
	case model.PaymentPending, model.PaymentPaid, model.PaymentRefunded:
	default:
		fields = append(fields, fmt.Sprintf("payment_status %q is not supported", req.PaymentStatus))
	}

	if len(fields) > 0 {
		return nil, &model.ValidationError{Fields: fields}
	}
	return v, nil
}

// BookAppointment books the requested slot.
//
// The slot is re-checked and inserted while holding a per doctor and date lock, and the
// store repeats the overlap check atomically with the insert, so two concurrent requests for
// the same slot yield exactly one appointment and one model.ErrSlotConflict. Linkage,
// timeline and event writes happen afterwards and never fail the booking.
func (s *BookingService) BookAppointment(ctx context.Context, req model.BookingRequest) (*model.Appointment, error) {
	v, err := s.validate(req)
	if err != nil {
		s.metrics.ObserveBooking(outcomeInvalid)
		return nil, err
	}

	var doctor *model.Doctor
	if s.doctors != nil {
		doctor, err = ResolveBookableDoctor(ctx, s.doctors, req.DoctorID)
		if err != nil {
			s.metrics.ObserveBooking(bookingOutcome(err))
			s.logger.Info("booking refused for doctor",
				zap.String("doctor_id", req.DoctorID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	unlock := s.locks.Lock(slotLockKey(req.DoctorID, req.Date))
	defer unlock()

	if err := s.availability.CheckSlot(ctx, req.DoctorID, v.date, v.start, v.duration); err != nil {
		s.metrics.ObserveBooking(bookingOutcome(err))
		return nil, err
	}

	now := s.now().UTC()
	appt := &model.Appointment{
		ID:                 uuid.NewString(),
		DoctorID:           req.DoctorID,
		PatientID:          req.PatientID,
		Date:               v.date,
		StartTime:          v.start,
		DurationMinutes:    v.duration,
		Type:               v.apptType,
		Status:             model.StatusScheduled,
		DiagnosticReportID: req.DiagnosticReportID,
		PreAnalysisID:      req.PreAnalysisID,
		PaymentStatus:      v.payment,
		PaymentMethod:      req.PaymentMethod,
		ReportShared:       req.DiagnosticReportID != nil,
		Reason:             req.Reason,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.appointments.CreateIfSlotFree(ctx, appt); err != nil {
		s.metrics.ObserveBooking(bookingOutcome(err))
		if errors.Is(err, model.ErrSlotConflict) {
			s.logger.Info("slot taken at commit",
				zap.String("doctor_id", appt.DoctorID),
				zap.String("date", req.Date),
				zap.String("time", appt.StartTime.String()),
			)
			return nil, err
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("doctor_id", appt.DoctorID),
		zap.String("patient_id", appt.PatientID),
		zap.String("date", req.Date),
		zap.String("time", appt.StartTime.String()),
	)
	s.metrics.ObserveBooking(outcomeCreated)

	s.ensureLinkage(ctx, appt)
	s.recordTimeline(ctx, appt, doctor)
	s.publishCreated(ctx, appt)

	return appt, nil
}

// GetAppointment returns a persisted appointment
func (s *BookingService) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &model.ValidationError{Fields: []string{"id is required"}}
	}
	appt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get appointment: %w: %w", model.ErrUpstreamUnavailable, err)
	}
	return appt, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, model.ErrSlotConflict):
		return outcomeConflict
	case errors.Is(err, model.ErrNotFound):
		return outcomeNotFound
	case model.IsValidationError(err):
		return outcomeInvalid
	default:
		return outcomeError
	}
}

func (s *BookingService) bestEffortFailed(step string, appt *model.Appointment, err error) {
	s.logger.Warn("best-effort write failed",
		zap.String("step", step),
		zap.String("appointment_id", appt.ID),
		zap.String("doctor_id", appt.DoctorID),
		zap.String("patient_id", appt.PatientID),
		zap.Error(err),
	)
	s.metrics.ObserveBestEffortFailure(step)
}

func (s *BookingService) ensureLinkage(ctx context.Context, appt *model.Appointment) {
	if s.links == nil {
		return
	}

	exists, err := s.links.Exists(ctx, appt.DoctorID, appt.PatientID, appt.DiagnosticReportID)
	if err != nil {
		s.bestEffortFailed(stepLinkage, appt, err)
		return
	}
	if exists {
		return
	}

	link := &model.DoctorPatientLink{
		ID:                 uuid.NewString(),
		DoctorID:           appt.DoctorID,
		PatientID:          appt.PatientID,
		DiagnosticReportID: appt.DiagnosticReportID,
		CreatedAt:          appt.CreatedAt,
	}
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return
		}
		s.bestEffortFailed(stepLinkage, appt, err)
	}
}

func (s *BookingService) recordTimeline(ctx context.Context, appt *model.Appointment, doctor *model.Doctor) {
	if s.timeline == nil {
		return
	}

	doctorLabel := "your doctor"
	if doctor != nil && doctor.FullName != "" {
		doctorLabel = doctor.FullName
		if doctor.Specialty != "" {
			doctorLabel = fmt.Sprintf("%s (%s)", doctor.FullName, doctor.Specialty)
		}
	}

	appointmentID := appt.ID
	event := &model.TimelineEvent{
		ID:            uuid.NewString(),
		PatientID:     appt.PatientID,
		EventType:     model.TimelineAppointmentBooked,
		Title:         "Appointment booked",
		Description:   fmt.Sprintf("%s with %s on %s at %s", typeLabel(appt.Type), doctorLabel, appt.Date.Format(model.DateLayout), appt.StartTime),
		AppointmentID: &appointmentID,
		OccurredAt:    appt.CreatedAt,
		Metadata: map[string]interface{}{
			"doctor_id":        appt.DoctorID,
			"duration_minutes": appt.DurationMinutes,
			"type":             string(appt.Type),
			"report_shared":    appt.ReportShared,
		},
	}
	if err := s.timeline.Record(ctx, event); err != nil {
		s.bestEffortFailed(stepTimeline, appt, err)
	}
}

func (s *BookingService) publishCreated(ctx context.Context, appt *model.Appointment) {
	if s.events == nil {
		return
	}

	event := model.AppointmentEvent{
		Type:               model.EventAppointmentCreated,
		AppointmentID:      appt.ID,
		DoctorID:           appt.DoctorID,
		PatientID:          appt.PatientID,
		Date:               appt.Date.Format(model.DateLayout),
		StartTime:          appt.StartTime.String(),
		DurationMinutes:    appt.DurationMinutes,
		AppointmentType:    appt.Type,
		DiagnosticReportID: appt.DiagnosticReportID,
		OccurredAt:         appt.CreatedAt,
	}
	if err := s.events.PublishAppointmentCreated(ctx, event); err != nil {
		s.bestEffortFailed(stepEvent, appt, err)
	}
}

func typeLabel(t model.AppointmentType) string {
	switch t {
	case model.AppointmentTypeInPerson:
		return "In-person consultation"
	case model.AppointmentTypeFollowUp:
		return "Follow-up"
	case model.AppointmentTypeLab:
		return "Lab appointment"
	default:
		return "Teleconsultation"
	}
}
