package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	cartsmemory "github.com/commercekit/commerce-core/internal/domains/carts/adapters/memory"
	cartsredis "github.com/commercekit/commerce-core/internal/domains/carts/adapters/redis"
	cartsports "github.com/commercekit/commerce-core/internal/domains/carts/ports"
	checkoutapp "github.com/commercekit/commerce-core/internal/domains/checkout/application"
	ordersgateway "github.com/commercekit/commerce-core/internal/domains/orders/adapters/gateway"
	ordersmemory "github.com/commercekit/commerce-core/internal/domains/orders/adapters/memory"
	ordersobs "github.com/commercekit/commerce-core/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/commercekit/commerce-core/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/commercekit/commerce-core/internal/domains/orders/application"
	ordersports "github.com/commercekit/commerce-core/internal/domains/orders/ports"
	"github.com/commercekit/commerce-core/internal/platform/migrations"
	platformobservability "github.com/commercekit/commerce-core/internal/platform/observability"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	platformpostgres "github.com/commercekit/commerce-core/internal/platform/postgres"
	platformredis "github.com/commercekit/commerce-core/internal/platform/redis"
	checkoutactivities "github.com/commercekit/commerce-core/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/commercekit/commerce-core/internal/platform/temporal/workflows/checkout"
)

func main() {
	ctx := context.Background()
	const serviceName = "commerce-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	var box *outbox.Store
	var orderRepo ordersports.Repository
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		box = outbox.NewStore(db)
		orderRepo = orderspostgres.NewRepository(db, box)
	} else {
		orderRepo = ordersmemory.NewRepository(outbox.NewBuffer())
	}

	redisClient, cleanupRedis := platformredis.ConnectFromEnv(ctx, logger)
	defer cleanupRedis()
	var cartStore cartsports.Store
	if redisClient != nil {
		cartStore = cartsredis.NewStore(redisClient, cartsredis.DefaultCartTTL)
	} else {
		cartStore = cartsmemory.NewStore()
	}

	gateway := ordersgateway.NewSimulated(ordersgateway.Config{})
	orderService := ordersobs.New(
		ordersapp.NewService(orderRepo, gateway),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	checkoutService := checkoutapp.NewService(orderRepo, gateway, cartStore)
	activities := checkoutactivities.NewActivities(checkoutService, orderService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, checkoutworkflows.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(checkoutworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: checkoutworkflows.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(activities.ProcessCheckout, activity.RegisterOptions{Name: checkoutactivities.ProcessCheckoutActivityName})
	w.RegisterActivityWithOptions(activities.ReleaseElectronicShipments, activity.RegisterOptions{Name: checkoutactivities.ReleaseElectronicShipmentsActivityName})

	logger.Info("worker listening", slog.String("taskQueue", checkoutworkflows.CheckoutTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
