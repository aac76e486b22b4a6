package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/middleware"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() model.AppointmentEvent {
	report := "report-1"
	return model.AppointmentEvent{
		Type:               model.EventAppointmentCreated,
		AppointmentID:      "appt-1",
		DoctorID:           "doc-1",
		PatientID:          "pat-1",
		Date:               "2026-11-02",
		StartTime:          "10:30",
		DurationMinutes:    30,
		AppointmentType:    model.AppointmentTypeTeleconsultation,
		DiagnosticReportID: &report,
		OccurredAt:         time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_PublishAppointmentCreated(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newKafkaPublisher(writer, "appointments", nil, zap.NewNop())

	require.NoError(t, publisher.PublishAppointmentCreated(context.Background(), sampleEvent()))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "appt-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "appointment.created", string(msg.Headers[0].Value))

	var decoded model.AppointmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, sampleEvent(), decoded)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisher_CarriesRequestID(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newKafkaPublisher(writer, "appointments", nil, zap.NewNop())
	ctx := middleware.ContextWithRequestID(context.Background(), "req-42")

	require.NoError(t, publisher.PublishAppointmentCreated(ctx, sampleEvent()))

	require.Len(t, writer.messages, 1)
	headers := map[string]string{}
	for _, h := range writer.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "req-42", headers["request_id"])
	assert.Equal(t, "appointment.created", headers["event_type"])
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("leader not available")}
	publisher := newKafkaPublisher(writer, "appointments", nil, zap.NewNop())

	err := publisher.PublishAppointmentCreated(context.Background(), sampleEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to produce message")
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	publisher := NewLogPublisher(nil, zap.New(core))

	require.NoError(t, publisher.PublishAppointmentCreated(context.Background(), sampleEvent()))

	entries := logs.FilterMessage("appointment event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "appt-1", entries[0].ContextMap()["appointment_id"])
}
