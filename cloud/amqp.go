package cloud

import (
	"context"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sm4rtm4art/go-api-template/config"
)

// amqpQueue adapts a RabbitMQ channel to the Queue interface. Used by
// the hetzner and custom providers for self-hosted RabbitMQ.
type amqpQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func dialAMQPQueue(qc config.QueueConfig) (*amqpQueue, error) {
	conn, err := amqp.Dial(amqpURL(qc))
	if err != nil {
		return nil, fmt.Errorf("amqp dial %s:%d: %w", qc.Host, qc.Port, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(qc.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare %q: %w", qc.Queue, err)
	}

	return &amqpQueue{conn: conn, ch: ch, queue: qc.Queue}, nil
}

func amqpURL(qc config.QueueConfig) string {
	vhost := ""
	if qc.VHost != "" && qc.VHost != "/" {
		vhost = "/" + url.PathEscape(qc.VHost)
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		url.QueryEscape(qc.Username), url.QueryEscape(qc.Password), qc.Host, qc.Port, vhost)
}

func (q *amqpQueue) Publish(ctx context.Context, body []byte) error {
	err := q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/octet-stream",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (q *amqpQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	deadline := time.Now().Add(wait)
	var msgs []Message

	for len(msgs) < max {
		if err := ctx.Err(); err != nil {
			return msgs, err
		}

		delivery, ok, err := q.ch.Get(q.queue, false)
		if err != nil {
			return msgs, fmt.Errorf("amqp get: %w", err)
		}
		if !ok {
			if len(msgs) > 0 || time.Now().After(deadline) {
				break
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		msgs = append(msgs, Message{
			ID:   delivery.MessageId,
			Body: delivery.Body,
			raw:  delivery.DeliveryTag,
		})
	}

	return msgs, nil
}

func (q *amqpQueue) Ack(ctx context.Context, msg Message) error {
	tag, ok := msg.raw.(uint64)
	if !ok {
		return fmt.Errorf("amqp ack: message has no delivery tag")
	}
	if err := q.ch.Ack(tag, false); err != nil {
		return fmt.Errorf("amqp ack: %w", err)
	}
	return nil
}

func (q *amqpQueue) Close() error {
	_ = q.ch.Close()
	return q.conn.Close()
}
