// Package events publishes booking lifecycle events for downstream systems
// (CRM follow-ups, fleet reporting). Publishing is best-effort: a booking is
// committed to the store before its event goes out, and a publish failure
// never fails the request.
package events

import (
	"context"

	"testdrive/pkg/kafka"
	"testdrive/pkg/logger"
	"testdrive/pkg/model"
)

const (
	EventBookingCreated = "booking.created"

	schemaVersion = "1"
	source        = "testdrive-server"
)

type Publisher interface {
	PublishBookingCreated(ctx context.Context, booking *model.Booking) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}
}

// PublishBookingCreated keys the event by vehicle model so all events for one
// vehicle land on the same partition in order.
func (p *kafkaPublisher) PublishBookingCreated(ctx context.Context, booking *model.Booking) error {
	msg := kafka.NewMessage().
		WithKey(booking.VehicleModel).
		WithValue(booking).
		WithEventType(EventBookingCreated).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish booking event",
			"event_type", EventBookingCreated,
			"event_id", msg.GetEventID(),
			"booking_id", booking.ID,
			"error", err,
		)
		return err
	}

	p.log.Debug("Booking event published",
		"event_type", EventBookingCreated,
		"event_id", msg.GetEventID(),
		"booking_id", booking.ID,
	)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops all events. Used when no Kafka brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingCreated(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
