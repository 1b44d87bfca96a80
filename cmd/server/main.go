package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chris-diam/diamantakis-server/internal/api"
	"github.com/chris-diam/diamantakis-server/internal/catalog"
	"github.com/chris-diam/diamantakis-server/internal/config"
	"github.com/chris-diam/diamantakis-server/internal/notify"
	"github.com/chris-diam/diamantakis-server/internal/payment"
	"github.com/chris-diam/diamantakis-server/internal/payment/webhook"
	stripewebhook "github.com/chris-diam/diamantakis-server/internal/payment/webhook/stripe"
	"github.com/chris-diam/diamantakis-server/internal/store/postgres"
	"github.com/chris-diam/diamantakis-server/internal/users"
	"github.com/chris-diam/diamantakis-server/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	setupLogging(cfg)

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	var notifier payment.Notifier
	if cfg.AMQPURL != "" {
		publisher, err := notify.NewPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq connection failed")
		}
		defer publisher.Close()
		notifier = publisher
	} else {
		log.Warn().Msg("AMQP_URL not set, order notifications disabled")
	}

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey)
	paymentStore := postgres.NewPaymentStore(db)
	orderStore := postgres.NewOrderStore(db)
	paymentService := payment.NewService(gateway, paymentStore, orderStore, notifier)

	var processor webhook.Processor
	if cfg.StripeWebhookSecret != "" {
		processor = stripewebhook.New(cfg.StripeWebhookSecret)
	} else {
		// Config validation already refused production without a secret.
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, webhook signatures are NOT verified")
		processor = stripewebhook.NewUnverified()
	}

	dispatcher := webhook.NewDispatcher()
	dispatcher.Register(stripewebhook.EventTypeSucceeded, paymentService.HandleSucceeded)
	dispatcher.Register(stripewebhook.EventTypeFailed, paymentService.HandleFailed)

	userService := users.NewService(postgres.NewUserStore(db), users.NewTokenIssuer(cfg.JWTSecret))
	catalogService := catalog.NewService(postgres.NewArtworkStore(db))

	router := api.NewRouter(api.Deps{
		Payments: api.NewPaymentsHandler(paymentService, processor, dispatcher),
		Artworks: api.NewArtworksHandler(catalogService),
		Users:    api.NewUsersHandler(userService),
		Verifier: userService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler := worker.NewReconciler(paymentService, paymentStore, gateway)
	go reconciler.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
