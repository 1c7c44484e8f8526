// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"gigbook/internal/instances"
)

// ShowsGeneratedQueue receives an event per recurring gig sync that created shows.
const ShowsGeneratedQueue = "shows.generated"

// Publisher sends events to a RabbitMQ broker, dialing once per publish.
type Publisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dial: amqp.Dial}
}

// PublishShowsGenerated publishes event to ShowsGeneratedQueue.
func (p *Publisher) PublishShowsGenerated(ctx context.Context, event instances.ShowsGenerated) error {
	msg, err := newPublishing(event, time.Now())
	if err != nil {
		return err
	}

	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ShowsGeneratedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", ShowsGeneratedQueue, false, false, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	log.Debug().
		Str("run_id", event.RunID).
		Int64("recurring_gig_id", event.RecurringGigID).
		Int("shows", len(event.ShowIDs)).
		Msg("Published shows.generated")
	return nil
}

func newPublishing(event instances.ShowsGenerated, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID,
		Type:         ShowsGeneratedQueue,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}
