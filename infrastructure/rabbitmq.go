package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"jobboard/domain"
)

const (
	publishTimeout = 5 * time.Second
	// deadLetterSuffix names the queue that keeps notifications whose
	// delivery failed twice.
	deadLetterSuffix = ".failed"
)

// RabbitMQ is the notification work queue. The web process publishes and
// the worker process consumes.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queue      amqp.Queue
	deadLetter string
	publish    func(ctx context.Context, queue string, body []byte) error
	log        *zap.SugaredLogger
}

// NewRabbitMQ connects and declares the durable work queue and its
// dead-letter queue.
func NewRabbitMQ(url, queueName string, log *zap.SugaredLogger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}

	var q amqp.Queue
	for _, name := range []string{queueName, queueName + deadLetterSuffix} {
		declared, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, errors.Wrapf(err, "failed to declare queue %s", name)
		}
		if name == queueName {
			q = declared
		}
	}

	log.Infow("Connected to RabbitMQ", "queue", q.Name)
	r := &RabbitMQ{conn: conn, channel: ch, queue: q, deadLetter: q.Name + deadLetterSuffix, log: log}
	r.publish = r.publishTo
	return r, nil
}

// Dispatch enqueues n for the worker.
func (r *RabbitMQ) Dispatch(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	return r.publish(ctx, r.queue.Name, body)
}

func (r *RabbitMQ) publishTo(ctx context.Context, queue string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := r.channel.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "publish to %s", queue)
	}
	return nil
}

// Consume hands each queued notification to handler until ctx is done.
func (r *RabbitMQ) Consume(ctx context.Context, handler func(context.Context, domain.Notification) error) error {
	msgs, err := r.channel.Consume(
		r.queue.Name,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to register consumer")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			r.handle(ctx, d, handler)
		}
	}
}

// handle settles one delivery. Malformed messages are dropped. A failed
// delivery is requeued once; when the redelivery fails too the message
// moves to the dead-letter queue.
func (r *RabbitMQ) handle(ctx context.Context, d amqp.Delivery, handler func(context.Context, domain.Notification) error) {
	var n domain.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		r.log.Warnw("Dropping malformed notification", "error", err)
		_ = d.Nack(false, false)
		return
	}

	err := handler(ctx, n)
	if err == nil {
		_ = d.Ack(false)
		return
	}
	if !d.Redelivered {
		r.log.Warnw("Notification delivery failed, requeued", "subject", n.Subject, "error", err)
		_ = d.Nack(false, true)
		return
	}

	if perr := r.publish(ctx, r.deadLetter, d.Body); perr != nil {
		r.log.Errorw("Notification delivery failed, dead-letter publish failed",
			"subject", n.Subject, "error", err, "publish_error", perr)
		_ = d.Nack(false, true)
		return
	}
	r.log.Errorw("Notification delivery failed twice, moved to dead-letter queue",
		"subject", n.Subject, "queue", r.deadLetter, "error", err)
	_ = d.Ack(false)
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		_ = r.conn.Close()
		return err
	}
	return r.conn.Close()
}
