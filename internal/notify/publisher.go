package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/chris-diam/diamantakis-server/internal/orders"
)

// OrderQueue receives one message per created order; the confirmation mailer
// consumes from it.
const OrderQueue = "order_confirmations"

// orderCreated is the wire shape published to the queue.
type orderCreated struct {
	OrderID         string        `json:"order_id"`
	PaymentIntentID string        `json:"payment_intent_id"`
	UserID          string        `json:"user_id"`
	AmountCents     int64         `json:"amount_cents"`
	Currency        string        `json:"currency"`
	Items           []orders.Item `json:"items,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Publisher pushes order notifications to RabbitMQ.
type Publisher struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

// NewPublisher dials the broker and declares the durable order queue.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := chn.QueueDeclare(
		OrderQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		chn.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", OrderQueue, err)
	}
	return &Publisher{conn: conn, chn: chn}, nil
}

// OrderCreated publishes one persistent message for the order.
func (p *Publisher) OrderCreated(ctx context.Context, o *orders.Order) error {
	body, err := json.Marshal(orderCreated{
		OrderID:         o.OrderID.String(),
		PaymentIntentID: o.PaymentIntentID,
		UserID:          o.UserID,
		AmountCents:     o.AmountCents,
		Currency:        o.Currency,
		Items:           o.Items,
		CreatedAt:       o.CreatedAt,
	})
	if err != nil {
		return err
	}
	return p.chn.PublishWithContext(
		ctx,
		"",         // default exchange
		OrderQueue, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	if err := p.chn.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
