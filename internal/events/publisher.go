package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/metrics"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/middleware"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer used here
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka publisher
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher publishes appointment events to a Kafka topic, keyed by appointment ID
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher
func NewKafkaPublisher(cfg KafkaConfig, collector *metrics.Collector, logger *zap.Logger) *KafkaPublisher {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, cfg.Topic, collector, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, collector *metrics.Collector, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  writer,
		topic:   topic,
		metrics: collector,
		logger:  logger,
	}
}

// PublishAppointmentCreated writes the event as JSON
func (p *KafkaPublisher) PublishAppointmentCreated(ctx context.Context, event model.AppointmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AppointmentID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	requestID := middleware.RequestIDFromContext(ctx)
	if requestID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "request_id", Value: []byte(requestID)})
	}

	err = p.writer.WriteMessages(ctx, msg)
	p.metrics.ObserveEvent(event.Type, err)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("topic", p.topic),
		zap.String("event_type", event.Type),
		zap.String("appointment_id", event.AppointmentID),
		zap.String("request_id", requestID),
	)
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the log only; used when no broker is configured
type LogPublisher struct {
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(collector *metrics.Collector, logger *zap.Logger) *LogPublisher {
	return &LogPublisher{metrics: collector, logger: logger}
}

// PublishAppointmentCreated logs the event
func (p *LogPublisher) PublishAppointmentCreated(ctx context.Context, event model.AppointmentEvent) error {
	p.logger.Info("appointment event",
		zap.String("event_type", event.Type),
		zap.String("appointment_id", event.AppointmentID),
		zap.String("doctor_id", event.DoctorID),
		zap.String("patient_id", event.PatientID),
		zap.String("date", event.Date),
		zap.String("start_time", event.StartTime),
		zap.String("request_id", middleware.RequestIDFromContext(ctx)),
	)
	p.metrics.ObserveEvent(event.Type, nil)
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error {
	return nil
}
