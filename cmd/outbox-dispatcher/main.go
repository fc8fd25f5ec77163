package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	platformkafka "github.com/commercekit/commerce-core/internal/platform/kafka"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	platformpostgres "github.com/commercekit/commerce-core/internal/platform/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot dispatch outbox events")
	}

	publisher, cleanupPublisher := platformkafka.PublisherFromEnv(logger)
	defer cleanupPublisher()
	if publisher == nil {
		log.Fatal("KAFKA_BROKERS not set; cannot dispatch outbox events")
	}

	dispatcher := outbox.NewDispatcher(outbox.NewStore(db), publisher, logger)
	logger.Info("outbox dispatcher started", slog.Duration("interval", drainIntervalFromEnv()))
	dispatcher.Run(ctx, drainIntervalFromEnv())
	logger.Info("outbox dispatcher stopped")
}

func drainIntervalFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("OUTBOX_DRAIN_INTERVAL_SECONDS"))
	if raw == "" {
		return 5 * time.Second
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
