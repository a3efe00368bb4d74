// Package push implements notify.Channel transports.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/bandmates/internal/notify"
)

var _ notify.Channel = (*RabbitChannel)(nil)

// envelope is the JSON body published for the push gateway.
type envelope struct {
	Token string            `json:"token,omitempty"`
	Topic string            `json:"topic,omitempty"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// RabbitChannel hands push messages to a gateway through RabbitMQ.
// Device messages go to a durable queue; topic messages go to a topic exchange
// routed by topic name.
type RabbitChannel struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	exchange string

	// serializes publishes on the shared channel
	mu sync.Mutex
}

// NewRabbitChannel dials url and declares the device queue and topic exchange.
func NewRabbitChannel(url, queue, exchange string) (*RabbitChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name of queue
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &RabbitChannel{conn: conn, ch: ch, queue: queue, exchange: exchange}, nil
}

// DeliverToDevice publishes one device message on the push queue.
func (r *RabbitChannel) DeliverToDevice(ctx context.Context, token string, msg notify.Message) error {
	return r.publish(ctx, "", r.queue, envelope{
		Token: token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
	})
}

// DeliverToTopic publishes one broadcast on the topic exchange.
func (r *RabbitChannel) DeliverToTopic(ctx context.Context, topic string, msg notify.Message) error {
	return r.publish(ctx, r.exchange, topic, envelope{
		Topic: topic,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
	})
}

func (r *RabbitChannel) publish(ctx context.Context, exchange, key string, e envelope) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ch.PublishWithContext(
		ctx,
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Close cleans up the channel and the connection.
func (r *RabbitChannel) Close() error {
	if err := r.ch.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}
