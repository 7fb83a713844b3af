// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const Exchange = "campusmart.events"

const (
	OrderPlaced      = "order.placed"
	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"
	MessageSent      = "message.sent"
	WalkerApproved   = "walker.approved"
)

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
	Close()
}

// Producer owns one AMQP connection and channel.
type Producer struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewProducer(rawURL string) (*Producer, error) {
	clean := strings.Trim(strings.TrimSpace(rawURL), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return nil, errors.Wrap(err, "parse amqp url")
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return nil, errors.New("AMQP scheme must be amqp:// or amqps://")
	}
	conn, err := amqp.DialConfig(clean, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := declare(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Producer{conn: conn, channel: ch}, nil
}

func declare(ch *amqp.Channel) error {
	return errors.Wrap(ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil), "declare exchange")
}

func (p *Producer) Publish(ctx context.Context, routingKey string, data any) error {
	body, err := json.Marshal(Envelope{Type: routingKey, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}
	// Channel died: reopen once and retry.
	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return errors.Wrap(err, "publish")
	}
	p.channel = ch
	if err := declare(ch); err != nil {
		return err
	}
	return errors.Wrap(p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, msg), "publish retry")
}

func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// LogPublisher is used when no broker is configured; events are only logged.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, routingKey string, data any) error {
	p.Logger.Debug("event.skipped", "exchange", Exchange, "routing_key", routingKey)
	return nil
}

func (LogPublisher) Close() {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *Recorder) Publish(_ context.Context, routingKey string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Envelope{Type: routingKey, OccurredAt: time.Now().UTC(), Data: data})
	return nil
}

func (r *Recorder) Close() {}

// Types lists the routing keys recorded so far.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
