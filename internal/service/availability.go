package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// AppointmentReader reads the appointments that occupy a doctor's day
type AppointmentReader interface {
	FindActiveByDoctorAndDate(ctx context.Context, doctorID string, date time.Time) ([]model.Appointment, error)
}

// WorkingHours describes the bookable window of a working day.
// MaxDurationMinutes caps a single appointment.
type WorkingHours struct {
	DayStartHour       int
	DayEndHour         int
	SlotMinutes        int
	MaxDurationMinutes int
}

// DefaultWorkingHours is 09:00-18:00 in 30 minute slots, at most two hours per appointment
var DefaultWorkingHours = WorkingHours{DayStartHour: 9, DayEndHour: 18, SlotMinutes: 30, MaxDurationMinutes: 120}

// GenerateWorkingSlots returns every slotMinutes-aligned start time in
// [dayStartHour:00, dayEndHour:00), ascending, all marked available.
// A non-positive duration or an empty window yields no slots.
func GenerateWorkingSlots(slotMinutes, dayStartHour, dayEndHour int) []model.TimeSlot {
	if slotMinutes <= 0 || dayStartHour >= dayEndHour {
		return []model.TimeSlot{}
	}

	start := model.ClockAt(dayStartHour, 0)
	end := model.ClockAt(dayEndHour, 0)

	slots := make([]model.TimeSlot, 0, int(end-start)/slotMinutes+1)
	for c := start; c < end; c = model.AddMinutes(c, slotMinutes) {
		slots = append(slots, model.TimeSlot{Time: c.String(), Available: true})
	}
	return slots
}

// Overlaps reports whether [aStart, aStart+aDur) and [bStart, bStart+bDur) intersect
func Overlaps(aStart model.Clock, aDur int, bStart model.Clock, bDur int) bool {
	return aStart < model.AddMinutes(bStart, bDur) && bStart < model.AddMinutes(aStart, aDur)
}

// MarkConflicts recomputes slot availability against existing appointments.
// Only scheduled and confirmed appointments block a slot. Order is preserved and
// no slot is removed; slots whose time cannot be parsed are marked unavailable.
func MarkConflicts(slots []model.TimeSlot, slotMinutes int, appointments []model.Appointment) []model.TimeSlot {
	out := make([]model.TimeSlot, len(slots))
	for i, slot := range slots {
		out[i] = model.TimeSlot{Time: slot.Time, Available: true}

		start, err := model.ParseClock(slot.Time)
		if err != nil {
			out[i].Available = false
			continue
		}

		for _, appt := range appointments {
			if !appt.Status.BlocksSlot() {
				continue
			}
			if Overlaps(start, slotMinutes, appt.StartTime, appt.DurationMinutes) {
				out[i].Available = false
				break
			}
		}
	}
	return out
}

// AvailabilityService computes bookable slots for a doctor and date
type AvailabilityService struct {
	appointments AppointmentReader
	hours        WorkingHours
	logger       *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(appointments AppointmentReader, hours WorkingHours, logger *zap.Logger) *AvailabilityService {
	if hours.SlotMinutes <= 0 {
		hours.SlotMinutes = DefaultWorkingHours.SlotMinutes
	}
	if hours.MaxDurationMinutes < hours.SlotMinutes {
		hours.MaxDurationMinutes = max(DefaultWorkingHours.MaxDurationMinutes, hours.SlotMinutes)
	}
	return &AvailabilityService{
		appointments: appointments,
		hours:        hours,
		logger:       logger,
	}
}

// SlotMinutes returns the default slot duration
func (s *AvailabilityService) SlotMinutes() int {
	return s.hours.SlotMinutes
}

// CheckDuration rejects appointment lengths that are not a positive multiple of
// the slot length or that exceed the configured maximum
func (s *AvailabilityService) CheckDuration(minutes int) error {
	var fields []string
	switch {
	case minutes <= 0:
		fields = append(fields, "duration_minutes must be positive")
	case minutes%s.hours.SlotMinutes != 0:
		fields = append(fields, fmt.Sprintf("duration_minutes must be a multiple of %d", s.hours.SlotMinutes))
	case minutes > s.hours.MaxDurationMinutes:
		fields = append(fields, fmt.Sprintf("duration_minutes must not exceed %d", s.hours.MaxDurationMinutes))
	}
	if len(fields) > 0 {
		return &model.ValidationError{Fields: fields}
	}
	return nil
}

// GetSlots returns the day's slots with availability computed from the store.
// The date is not compared with "now"; filtering past dates is the caller's job.
func (s *AvailabilityService) GetSlots(ctx context.Context, doctorID string, date time.Time, slotMinutes int) ([]model.TimeSlot, error) {
	if slotMinutes <= 0 {
		slotMinutes = s.hours.SlotMinutes
	}

	existing, err := s.appointments.FindActiveByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		s.logger.Error("failed to load appointments for availability",
			zap.Error(err),
			zap.String("doctor_id", doctorID),
			zap.String("date", date.Format(model.DateLayout)),
		)
		return nil, fmt.Errorf("failed to load appointments: %w: %w", model.ErrUpstreamUnavailable, err)
	}

	slots := GenerateWorkingSlots(slotMinutes, s.hours.DayStartHour, s.hours.DayEndHour)
	slots = MarkConflicts(slots, slotMinutes, existing)

	s.logger.Debug("availability computed",
		zap.String("doctor_id", doctorID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.Int("slots", len(slots)),
		zap.Int("existing_appointments", len(existing)),
	)

	return slots, nil
}

// CheckSlot confirms that start is an offered slot and is still free.
// A start outside the generated grid, or an appointment running past the end of
// the working day, is a validation error; an occupied slot is ErrSlotConflict.
func (s *AvailabilityService) CheckSlot(ctx context.Context, doctorID string, date time.Time, start model.Clock, slotMinutes int) error {
	dayEnd := model.ClockAt(s.hours.DayEndHour, 0)
	if model.AddMinutes(start, slotMinutes) > dayEnd {
		return &model.ValidationError{Fields: []string{fmt.Sprintf("appointment must end by %s", dayEnd)}}
	}

	slots, err := s.GetSlots(ctx, doctorID, date, slotMinutes)
	if err != nil {
		return err
	}

	want := start.String()
	for _, slot := range slots {
		if slot.Time != want {
			continue
		}
		if !slot.Available {
			return fmt.Errorf("doctor %s at %s %s: %w", doctorID, date.Format(model.DateLayout), want, model.ErrSlotConflict)
		}
		return nil
	}

	return &model.ValidationError{Fields: []string{fmt.Sprintf("time %s is not an offered slot", want)}}
}
