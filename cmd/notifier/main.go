// The notifier worker drains the order confirmation queue and hands each
// order to the mail pipeline. Actual mail delivery is stubbed to a log line
// until an ESP account is provisioned.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chris-diam/diamantakis-server/internal/notify"
	"github.com/chris-diam/diamantakis-server/internal/payment"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		log.Fatal().Msg("AMQP_URL is required")
	}

	consumer, err := notify.NewConsumer(amqpURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq connection failed")
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", notify.OrderQueue).Msg("notifier listening")
	err = consumer.Run(ctx, func(ctx context.Context, msg notify.OrderMessage) error {
		log.Info().
			Str("order_id", msg.OrderID).
			Str("user_id", msg.UserID).
			Str("intent_id", msg.PaymentIntentID).
			Float64("amount", payment.ToMajorUnits(msg.AmountCents)).
			Str("currency", msg.Currency).
			Msg("order confirmation")
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
}
