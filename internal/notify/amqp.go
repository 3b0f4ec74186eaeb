// Package notify publishes order notifications to RabbitMQ. Actual mail
// delivery is handled by a downstream consumer of the mail queue; from the
// checkout's perspective Send is fire-and-forget.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the durable topic exchange mail messages go to.
	ExchangeName = "shopfront.mail"
	// ExchangeType is the exchange kind declared at setup.
	ExchangeType = "topic"

	orderRoutingKey = "mail.order"

	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

type mailMessage struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// Setup dials the broker, opens a channel, and declares the mail exchange.
// It retries the dial a few times to tolerate broker startup ordering.
func Setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		time.Sleep(dialBackoff)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, errors.Wrap(err, "open channel")
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "declare exchange")
	}

	return conn, ch, nil
}

// AMQPNotifier publishes mail messages to the shopfront mail exchange.
type AMQPNotifier struct {
	ch *amqp.Channel
}

// NewAMQPNotifier creates a notifier over an already set up channel.
func NewAMQPNotifier(ch *amqp.Channel) *AMQPNotifier {
	return &AMQPNotifier{ch: ch}
}

// Send publishes one mail message. The caller bounds ctx; publishing honors
// its deadline.
func (n *AMQPNotifier) Send(ctx context.Context, subject, body string, recipients []string) error {
	msg := mailMessage{
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal mail message")
	}

	err = n.ch.PublishWithContext(ctx,
		ExchangeName,
		orderRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         data,
		},
	)
	if err != nil {
		return errors.Wrap(err, "publish mail message")
	}
	return nil
}
