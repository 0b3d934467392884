package listeners

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/virinco/vicpack-relay/internal/domain"
)

// amqpListener drains uplink envelopes from a RabbitMQ queue with manual acks.
type amqpListener struct {
	id      string
	typ     string
	cfg     AMQPListenerConfig
	log     Logger
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// newAMQPListener creates a RabbitMQ listener from the given configuration.
// The connection is established lazily in Listen.
func newAMQPListener(cfg ListenerConfig, log Logger) (Listener, error) {
	if cfg.AMQP == nil {
		return nil, fmt.Errorf("listener %q missing amqp configuration", cfg.ID)
	}

	return &amqpListener{
		id:  cfg.ID,
		typ: TypeAMQP,
		cfg: *cfg.AMQP,
		log: ensureLogger(log),
	}, nil
}

func (a *amqpListener) ID() string   { return a.id }
func (a *amqpListener) Type() string { return a.typ }

// connect dials the broker and declares the exchange/queue topology.
func (a *amqpListener) connect() (*amqp.Channel, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, fmt.Errorf("amqp listener %q is closed", a.id)
	}
	if a.channel != nil {
		return a.channel, nil
	}

	conn, err := amqp.Dial(a.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		a.cfg.Exchange,
		a.cfg.ExchangeType,
		a.cfg.Durable,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", a.cfg.Exchange, err)
	}

	queue, err := ch.QueueDeclare(
		a.cfg.Queue,
		a.cfg.Durable,
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", a.cfg.Queue, err)
	}

	if err := ch.QueueBind(queue.Name, a.cfg.RoutingKey, a.cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue %q: %w", queue.Name, err)
	}

	a.conn = conn
	a.channel = ch
	return ch, nil
}

// Listen consumes uplinks until the context is cancelled. Malformed messages
// are rejected without requeue; transient handler failures are requeued so
// the broker's redelivery policy applies.
func (a *amqpListener) Listen(ctx context.Context, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("amqp listener %q requires a handler", a.id)
	}

	ch, err := a.connect()
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(
		a.cfg.Queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register amqp consumer: %w", err)
	}

	a.log.InfoObj("amqp listener consuming", "listener_amqp_state", map[string]any{
		"listener_id": a.id,
		"queue":       a.cfg.Queue,
		"exchange":    a.cfg.Exchange,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("amqp consumer channel closed")
			}
			a.handleDelivery(ctx, handler, msg)
		}
	}
}

// handleDelivery runs the handler for one delivery and acks/nacks accordingly.
func (a *amqpListener) handleDelivery(ctx context.Context, handler Handler, msg amqp.Delivery) {
	up, err := parseUplink(a.id, msg.Body)
	if err != nil {
		a.log.WarnObj("amqp uplink envelope rejected", "listener_amqp_reject", map[string]any{
			"listener_id": a.id,
			"error":       err.Error(),
		})
		_ = msg.Nack(false, false)
		return
	}

	if err := handler(ctx, up); err != nil {
		requeue := !errors.Is(err, domain.ErrMalformedUplink)
		a.log.ErrorObj("amqp uplink handling failed", "listener_amqp_error", map[string]any{
			"listener_id": a.id,
			"device_eui":  up.DeviceEUI,
			"requeue":     requeue,
			"error":       err.Error(),
		})
		_ = msg.Nack(false, requeue)
		return
	}

	_ = msg.Ack(false)
}

// Close closes the broker connection and channel.
func (a *amqpListener) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if a.channel != nil {
		if err := a.channel.Close(); err != nil {
			errs = append(errs, err)
		}
		a.channel = nil
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			errs = append(errs, err)
		}
		a.conn = nil
	}
	return errors.Join(errs...)
}
