package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"caixa/internal/amqp"
	"caixa/internal/cli"
	"caixa/internal/core"
	apphttp "caixa/internal/http"
	"caixa/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("caixa")
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitSessionStore(logger, cfg)

	// AMQP is optional: without it, decisions arrive only through the
	// HTTP decision endpoint.
	var (
		events     services.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPDecisionsQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP decision channel enabled",
			"exchange", cfg.AMQPExchange,
			"events_queue", cfg.AMQPEventsQueue,
			"decisions_queue", cfg.AMQPDecisionsQueue)
	}

	svc := services.NewAnalysisService(store, events)
	srv := apphttp.NewServer(":"+cfg.Port, svc)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting caixa server", "port", cfg.Port, "session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeDecisions(ctx, func(msg *amqp.DecisionMessage) error {
				err := svc.Decide(ctx, msg.SessionID, msg.Key(), core.Decision(msg.Action))
				if errors.Is(err, core.ErrSessionNotFound) || errors.Is(err, core.ErrUnknownDecision) {
					// Requeueing cannot fix a bad message.
					logger.Warn("Dropping undeliverable decision",
						"session_id", msg.SessionID, "error", err)
					return nil
				}
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
