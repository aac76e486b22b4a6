package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStore) ListTimelineEvents(ctx context.Context, patientID string, limit int) ([]model.TimelineEvent, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimelineEvent), args.Error(1)
}

func TestRecorder_RecordFillsDefaults(t *testing.T) {
	store := new(MockStore)
	core, logs := observer.New(zap.InfoLevel)
	recorder := NewRecorder(store, zap.New(core))
	ctx := context.Background()

	store.On("InsertTimelineEvent", ctx, mock.MatchedBy(func(e *model.TimelineEvent) bool {
		return e.ID != "" && !e.OccurredAt.IsZero()
	})).Return(nil)

	apptID := "appt-1"
	event := &model.TimelineEvent{
		PatientID:     "pat-1",
		EventType:     model.TimelineAppointmentBooked,
		Title:         "Appointment booked",
		AppointmentID: &apptID,
	}

	require.NoError(t, recorder.Record(ctx, event))
	assert.NotEmpty(t, event.ID)

	entries := logs.FilterMessage("Timeline event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "appt-1", entries[0].ContextMap()["appointment_id"])
	store.AssertExpectations(t)
}

func TestRecorder_RecordKeepsGivenValues(t *testing.T) {
	store := new(MockStore)
	recorder := NewRecorder(store, zap.NewNop())
	ctx := context.Background()

	at := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	event := &model.TimelineEvent{ID: "evt-1", PatientID: "pat-1", OccurredAt: at}
	store.On("InsertTimelineEvent", ctx, event).Return(nil)

	require.NoError(t, recorder.Record(ctx, event))
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, at, event.OccurredAt)
}

func TestRecorder_RecordRequiresPatient(t *testing.T) {
	store := new(MockStore)
	recorder := NewRecorder(store, zap.NewNop())

	err := recorder.Record(context.Background(), &model.TimelineEvent{Title: "orphan"})

	assert.True(t, model.IsValidationError(err))
	store.AssertNotCalled(t, "InsertTimelineEvent", mock.Anything, mock.Anything)
}

func TestRecorder_RecordStoreFailure(t *testing.T) {
	store := new(MockStore)
	core, logs := observer.New(zap.ErrorLevel)
	recorder := NewRecorder(store, zap.New(core))
	ctx := context.Background()

	store.On("InsertTimelineEvent", ctx, mock.Anything).Return(errors.New("relation does not exist"))

	err := recorder.Record(ctx, &model.TimelineEvent{PatientID: "pat-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record timeline event")
	assert.Equal(t, 1, logs.FilterMessage("Failed to write timeline event").Len())
}

func TestRecorder_HistoryDefaultsLimit(t *testing.T) {
	store := new(MockStore)
	recorder := NewRecorder(store, zap.NewNop())
	ctx := context.Background()

	store.On("ListTimelineEvents", ctx, "pat-1", DefaultHistoryLimit).
		Return([]model.TimelineEvent{{ID: "evt-1"}}, nil)

	events, err := recorder.History(ctx, "pat-1", 0)

	require.NoError(t, err)
	assert.Len(t, events, 1)
	store.AssertExpectations(t)
}
