package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// OrderMessage is what a consumer receives for each created order.
type OrderMessage struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	UserID          string `json:"user_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// Consumer drains the order confirmation queue. Messages are acked only
// after the handler succeeds, so a crashed worker redelivers.
type Consumer struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

func NewConsumer(url string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := chn.QueueDeclare(OrderQueue, true, false, false, false, nil); err != nil {
		chn.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", OrderQueue, err)
	}
	return &Consumer{conn: conn, chn: chn}, nil
}

// Run consumes until ctx is cancelled. Blocking call.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, OrderMessage) error) error {
	deliveries, err := c.chn.Consume(
		OrderQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", OrderQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp channel closed")
			}
			var msg OrderMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Error().Err(err).Msg("dropping malformed order message")
				d.Nack(false, false)
				continue
			}
			if err := handle(ctx, msg); err != nil {
				log.Warn().Err(err).Str("order_id", msg.OrderID).Msg("order message handling failed, requeueing")
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.chn.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
