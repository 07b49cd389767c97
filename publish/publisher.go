package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

const (
	// DefaultExchange is used when no exchange name is configured.
	DefaultExchange = "bus_progress"

	publishTimeout = 5 * time.Second
	maxRetries     = 5
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes progress events. It implements monitor.Notifier.
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	conn     *amqp.Connection
	exchange string
	log      logging.Logger
	now      func() time.Time
	closed   bool
}

// NewPublisher declares a durable topic exchange on ch.
func NewPublisher(ch Channel, exchange string, log logging.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if log == nil {
		log = logging.Noop()
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, log: log, now: time.Now}, nil
}

// Dial connects to the broker, retrying with backoff until ctx ends or the
// attempts run out.
func Dial(ctx context.Context, url, exchange string, log logging.Logger) (*Publisher, error) {
	if log == nil {
		log = logging.Noop()
	}
	delay := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			ch, chErr := conn.Channel()
			if chErr == nil {
				p, pErr := NewPublisher(ch, exchange, log)
				if pErr == nil {
					p.conn = conn
					log.Info(ctx, "rabbitmq connected", logging.String("exchange", p.exchange), logging.Int("attempt", attempt))
					return p, nil
				}
				chErr = pErr
				_ = ch.Close()
			}
			_ = conn.Close()
			err = chErr
		}
		lastErr = err
		log.Warn(ctx, "rabbitmq connection attempt failed",
			logging.Int("attempt", attempt), logging.Int("max_retries", maxRetries), logging.Err(err))

		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay = min(time.Duration(float64(delay)*1.5), 30*time.Second)
		}
	}
	return nil, fmt.Errorf("connect rabbitmq after %d attempts: %w", maxRetries, lastErr)
}

// Exchange returns the exchange events are published to.
func (p *Publisher) Exchange() string { return p.exchange }

// Publish sends the event for one state.
func (p *Publisher) Publish(ctx context.Context, s tracking.BusState) error {
	body, err := json.Marshal(NewProgressEvent(s, p.now()))
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}

	p.mu.Lock()
	ch, closed := p.ch, p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("publisher closed")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return ch.PublishWithContext(ctx, p.exchange, RoutingKey(s.BusNumber), false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Transient,
		Timestamp:    p.now(),
	})
}

// Notify publishes s and logs failures. A broker outage never blocks
// polling.
func (p *Publisher) Notify(ctx context.Context, s tracking.BusState) {
	if err := p.Publish(ctx, s); err != nil {
		p.log.Warn(ctx, "publish progress failed",
			logging.String("bus", s.BusNumber),
			logging.String("routing_key", RoutingKey(s.BusNumber)),
			logging.Err(err))
		return
	}
	p.log.Debug(ctx, "progress published", logging.String("routing_key", RoutingKey(s.BusNumber)))
}

// Close closes the channel and, when dialed, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
