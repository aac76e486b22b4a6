package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

var testDate = time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC)

func scheduledAt(t *testing.T, hhmm string, duration int) model.Appointment {
	t.Helper()
	start, err := model.ParseClock(hhmm)
	require.NoError(t, err)
	return model.Appointment{
		ID:              "appt-" + hhmm,
		DoctorID:        "doc-1",
		Date:            testDate,
		StartTime:       start,
		DurationMinutes: duration,
		Status:          model.StatusScheduled,
	}
}

func availability(slots []model.TimeSlot) map[string]bool {
	out := make(map[string]bool, len(slots))
	for _, s := range slots {
		out[s.Time] = s.Available
	}
	return out
}

func TestGenerateWorkingSlots_DefaultDay(t *testing.T) {
	slots := GenerateWorkingSlots(30, 9, 18)

	require.Len(t, slots, 18)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "17:30", slots[len(slots)-1].Time)
	for _, s := range slots {
		assert.True(t, s.Available, s.Time)
	}
}

func TestGenerateWorkingSlots_InvalidInput(t *testing.T) {
	assert.Empty(t, GenerateWorkingSlots(0, 9, 18))
	assert.Empty(t, GenerateWorkingSlots(-15, 9, 18))
	assert.Empty(t, GenerateWorkingSlots(30, 18, 9))
	assert.Empty(t, GenerateWorkingSlots(30, 12, 12))
}

func TestGenerateWorkingSlots_UnevenDurationStopsBeforeEnd(t *testing.T) {
	slots := GenerateWorkingSlots(45, 9, 11)

	times := make([]string, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.Time)
	}
	assert.Equal(t, []string{"09:00", "09:45", "10:30"}, times)
}

func TestMarkConflicts_ScheduledAppointmentBlocksOnlyItsSlot(t *testing.T) {
	slots := GenerateWorkingSlots(30, 9, 18)

	got := availability(MarkConflicts(slots, 30, []model.Appointment{scheduledAt(t, "10:00", 30)}))

	assert.False(t, got["10:00"])
	assert.True(t, got["09:30"])
	assert.True(t, got["10:30"])
}

func TestMarkConflicts_LongAppointmentSpansSlots(t *testing.T) {
	slots := GenerateWorkingSlots(30, 9, 18)

	got := availability(MarkConflicts(slots, 30, []model.Appointment{scheduledAt(t, "14:15", 60)}))

	assert.True(t, got["13:30"])
	assert.False(t, got["14:00"])
	assert.False(t, got["14:30"])
	assert.False(t, got["15:00"])
	assert.True(t, got["15:30"])
}

func TestMarkConflicts_InactiveStatusesDoNotBlock(t *testing.T) {
	slots := GenerateWorkingSlots(30, 9, 18)

	for _, status := range []model.AppointmentStatus{
		model.StatusCancelled, model.StatusCompleted, model.StatusNoShow, model.StatusInProgress,
	} {
		appt := scheduledAt(t, "11:00", 30)
		appt.Status = status

		got := availability(MarkConflicts(slots, 30, []model.Appointment{appt}))
		assert.True(t, got["11:00"], string(status))
	}

	confirmed := scheduledAt(t, "11:00", 30)
	confirmed.Status = model.StatusConfirmed
	got := availability(MarkConflicts(slots, 30, []model.Appointment{confirmed}))
	assert.False(t, got["11:00"])
}

func TestMarkConflicts_RecomputesAndKeepsOrder(t *testing.T) {
	slots := []model.TimeSlot{
		{Time: "09:00", Available: false},
		{Time: "bogus", Available: true},
		{Time: "08:00", Available: true},
	}

	got := MarkConflicts(slots, 30, nil)

	require.Len(t, got, 3)
	assert.Equal(t, model.TimeSlot{Time: "09:00", Available: true}, got[0])
	assert.Equal(t, model.TimeSlot{Time: "bogus", Available: false}, got[1])
	assert.Equal(t, model.TimeSlot{Time: "08:00", Available: true}, got[2])
}

func genOneOf(values ...int) gopter.Gen {
	return gen.IntRange(0, len(values)-1).Map(func(i int) int { return values[i] })
}

// Property: slot count, contiguity and exact coverage of the working window
func TestProperty_WorkingSlotsCoverWindowExactly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("slots are contiguous and cover [start, end)", prop.ForAll(
		func(startHour, span int, duration int) bool {
			endHour := startHour + span
			if endHour > 24 {
				endHour = 24
			}
			slots := GenerateWorkingSlots(duration, startHour, endHour)

			if len(slots) != (endHour-startHour)*60/duration {
				return false
			}
			expected := model.ClockAt(startHour, 0)
			for _, s := range slots {
				c, err := model.ParseClock(s.Time)
				if err != nil || c != expected || !s.Available {
					return false
				}
				expected = model.AddMinutes(expected, duration)
			}
			return expected == model.ClockAt(endHour, 0)
		},
		gen.IntRange(0, 22),
		gen.IntRange(1, 12),
		genOneOf(5, 10, 15, 20, 30, 60),
	))

	properties.TestingRun(t)
}

// overlapsThreeCase is the case-split formulation: the slot starts inside the
// appointment, ends inside it, or fully contains it.
func overlapsThreeCase(slotStart, slotDur, apptStart, apptDur int) bool {
	slotEnd := slotStart + slotDur
	apptEnd := apptStart + apptDur
	startsInside := slotStart >= apptStart && slotStart < apptEnd
	endsInside := slotEnd > apptStart && slotEnd <= apptEnd
	contains := slotStart <= apptStart && slotEnd >= apptEnd
	return startsInside || endsInside || contains
}

// Property: the single intersection test agrees with the three-case formulation
func TestProperty_OverlapFormulationsAgree(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(parameters)

	properties.Property("half-open intersection equals three-case check", prop.ForAll(
		func(aStart, aDur, bStart, bDur int) bool {
			single := Overlaps(model.Clock(aStart), aDur, model.Clock(bStart), bDur)
			return single == overlapsThreeCase(aStart, aDur, bStart, bDur)
		},
		gen.IntRange(0, 1439),
		gen.IntRange(1, 240),
		gen.IntRange(0, 1439),
		gen.IntRange(1, 240),
	))

	properties.TestingRun(t)
}

// Property: a generated slot is unavailable iff it intersects the appointment
func TestProperty_SlotUnavailableIffIntersects(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("MarkConflicts matches interval intersection", prop.ForAll(
		func(apptStart, apptDur, slotMinutes int) bool {
			appt := model.Appointment{
				StartTime:       model.Clock(apptStart),
				DurationMinutes: apptDur,
				Status:          model.StatusScheduled,
			}
			slots := MarkConflicts(GenerateWorkingSlots(slotMinutes, 9, 18), slotMinutes, []model.Appointment{appt})

			for _, s := range slots {
				c, err := model.ParseClock(s.Time)
				if err != nil {
					return false
				}
				intersects := overlapsThreeCase(int(c), slotMinutes, apptStart, apptDur)
				if s.Available == intersects {
					return false
				}
			}
			return true
		},
		gen.IntRange(8*60, 19*60),
		gen.IntRange(1, 180),
		genOneOf(15, 20, 30, 45, 60),
	))

	properties.TestingRun(t)
}

func TestAvailabilityService_GetSlots(t *testing.T) {
	store := new(MockAppointmentStore)
	store.On("FindActiveByDoctorAndDate", mock.Anything, "doc-1", testDate).
		Return([]model.Appointment{scheduledAt(t, "10:00", 30)}, nil)

	svc := NewAvailabilityService(store, DefaultWorkingHours, zap.NewNop())

	slots, err := svc.GetSlots(context.Background(), "doc-1", testDate, 0)

	require.NoError(t, err)
	require.Len(t, slots, 18)
	got := availability(slots)
	assert.False(t, got["10:00"])
	assert.True(t, got["09:30"])
	assert.True(t, got["10:30"])
	store.AssertExpectations(t)
}

func TestAvailabilityService_GetSlots_StoreFailurePropagates(t *testing.T) {
	store := new(MockAppointmentStore)
	store.On("FindActiveByDoctorAndDate", mock.Anything, "doc-1", testDate).
		Return(nil, errors.New("connection refused"))

	svc := NewAvailabilityService(store, DefaultWorkingHours, zap.NewNop())

	slots, err := svc.GetSlots(context.Background(), "doc-1", testDate, 30)

	assert.Nil(t, slots)
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}

func TestAvailabilityService_CheckSlot(t *testing.T) {
	store := new(MockAppointmentStore)
	store.On("FindActiveByDoctorAndDate", mock.Anything, "doc-1", testDate).
		Return([]model.Appointment{scheduledAt(t, "10:00", 30)}, nil)

	svc := NewAvailabilityService(store, DefaultWorkingHours, zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, svc.CheckSlot(ctx, "doc-1", testDate, model.ClockAt(10, 30), 30))

	err := svc.CheckSlot(ctx, "doc-1", testDate, model.ClockAt(10, 0), 30)
	assert.ErrorIs(t, err, model.ErrSlotConflict)

	err = svc.CheckSlot(ctx, "doc-1", testDate, model.ClockAt(10, 10), 30)
	assert.True(t, model.IsValidationError(err))

	err = svc.CheckSlot(ctx, "doc-1", testDate, model.ClockAt(18, 0), 30)
	assert.True(t, model.IsValidationError(err))
}

func TestAvailabilityService_CheckDuration(t *testing.T) {
	svc := NewAvailabilityService(new(MockAppointmentStore), DefaultWorkingHours, zap.NewNop())

	for _, ok := range []int{30, 60, 90, 120} {
		assert.NoError(t, svc.CheckDuration(ok), ok)
	}
	for _, bad := range []int{-30, 0, 20, 45, 150, 540} {
		assert.True(t, model.IsValidationError(svc.CheckDuration(bad)), bad)
	}
}

func TestAvailabilityService_CheckSlot_MustEndByClosing(t *testing.T) {
	store := new(MockAppointmentStore)
	store.On("FindActiveByDoctorAndDate", mock.Anything, "doc-1", testDate).Return([]model.Appointment{}, nil)
	svc := NewAvailabilityService(store, DefaultWorkingHours, zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, svc.CheckSlot(ctx, "doc-1", testDate, model.ClockAt(15, 0), 120))

	err := svc.CheckSlot(ctx, "doc-1", testDate, model.ClockAt(17, 0), 120)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"appointment must end by 18:00"}, ve.Fields)
}

func TestNewAvailabilityService_MaxDurationNeverBelowSlot(t *testing.T) {
	svc := NewAvailabilityService(new(MockAppointmentStore), WorkingHours{DayStartHour: 8, DayEndHour: 20, SlotMinutes: 180}, zap.NewNop())

	assert.NoError(t, svc.CheckDuration(180))
	assert.True(t, model.IsValidationError(svc.CheckDuration(360)))
}
