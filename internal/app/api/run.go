package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	cartsmemory "github.com/commercekit/commerce-core/internal/domains/carts/adapters/memory"
	cartsredis "github.com/commercekit/commerce-core/internal/domains/carts/adapters/redis"
	cartsapp "github.com/commercekit/commerce-core/internal/domains/carts/application"
	cartsports "github.com/commercekit/commerce-core/internal/domains/carts/ports"
	changesetsmemory "github.com/commercekit/commerce-core/internal/domains/changesets/adapters/memory"
	changesetspostgres "github.com/commercekit/commerce-core/internal/domains/changesets/adapters/persistence/postgres"
	changesetsapp "github.com/commercekit/commerce-core/internal/domains/changesets/application"
	changesetsports "github.com/commercekit/commerce-core/internal/domains/changesets/ports"
	checkoutworkflowadapters "github.com/commercekit/commerce-core/internal/domains/checkout/adapters/workflows"
	checkoutapp "github.com/commercekit/commerce-core/internal/domains/checkout/application"
	checkoutports "github.com/commercekit/commerce-core/internal/domains/checkout/ports"
	customersmemory "github.com/commercekit/commerce-core/internal/domains/customers/adapters/memory"
	customerspostgres "github.com/commercekit/commerce-core/internal/domains/customers/adapters/persistence/postgres"
	customersredis "github.com/commercekit/commerce-core/internal/domains/customers/adapters/redis"
	customersapp "github.com/commercekit/commerce-core/internal/domains/customers/application"
	customersports "github.com/commercekit/commerce-core/internal/domains/customers/ports"
	ordersgateway "github.com/commercekit/commerce-core/internal/domains/orders/adapters/gateway"
	ordersmemory "github.com/commercekit/commerce-core/internal/domains/orders/adapters/memory"
	ordersobs "github.com/commercekit/commerce-core/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/commercekit/commerce-core/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/commercekit/commerce-core/internal/domains/orders/application"
	ordersports "github.com/commercekit/commerce-core/internal/domains/orders/ports"
	platformkafka "github.com/commercekit/commerce-core/internal/platform/kafka"
	"github.com/commercekit/commerce-core/internal/platform/migrations"
	platformobservability "github.com/commercekit/commerce-core/internal/platform/observability"
	"github.com/commercekit/commerce-core/internal/platform/outbox"
	platformpostgres "github.com/commercekit/commerce-core/internal/platform/postgres"
	platformredis "github.com/commercekit/commerce-core/internal/platform/redis"
	httpapi "github.com/commercekit/commerce-core/internal/transport/http"
)

// Run boots the commerce HTTP API with observability, repositories, the
// payment gateway, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "commerce-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
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
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	redisClient, cleanupRedis := platformredis.ConnectFromEnv(ctx, logger)
	defer cleanupRedis()

	var box *outbox.Store
	sink := outbox.NewBuffer()
	if db != nil {
		box = outbox.NewStore(db)
	}

	var orderRepo ordersports.Repository
	var changeSetRepo changesetsports.Repository
	var customerRepo customersports.Repository
	if db != nil {
		orderRepo = orderspostgres.NewRepository(db, box)
		changeSetRepo = changesetspostgres.NewRepository(db, box)
		customerRepo = customerspostgres.NewRepository(db, box)
	} else {
		orderRepo = ordersmemory.NewRepository(sink)
		changeSetRepo = changesetsmemory.NewRepository(sink)
		customerRepo = customersmemory.NewRepository(sink)
	}

	var cartStore cartsports.Store
	var sessionStore customersports.SessionStore
	if redisClient != nil {
		cartStore = cartsredis.NewStore(redisClient, cfg.CartTTL)
		sessionStore = customersredis.NewSessionStore(redisClient, cfg.SessionTTL)
	} else {
		cartStore = cartsmemory.NewStore()
		sessionStore = customersmemory.NewSessionStore(cfg.SessionTTL)
	}

	gateway := ordersgateway.NewSimulated(gatewayConfig(cfg))

	coreOrderService := ordersapp.NewService(orderRepo, gateway)
	orderService := ordersobs.New(
		coreOrderService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	checkoutService := checkoutapp.NewService(orderRepo, gateway, cartStore)
	cartService := cartsapp.NewService(cartStore)
	changeSetService := changesetsapp.NewService(changeSetRepo)
	customerService := customersapp.NewService(customerRepo, sessionStore)

	var checkoutWorkflows checkoutports.WorkflowOrchestrator = checkoutworkflowadapters.NewInlineCheckout(checkoutService)
	if cfg.TemporalDisabled {
		logger.Info("Temporal disabled, running inline checkout")
	} else if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running inline checkout", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		checkoutWorkflows = checkoutworkflowadapters.NewTemporalCheckout(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	if box != nil {
		if publisher, cleanupPublisher := platformkafka.PublisherFromEnv(logger); publisher != nil {
			defer cleanupPublisher()
			dispatcher := outbox.NewDispatcher(box, publisher, logger)
			go dispatcher.Run(ctx, cfg.OutboxDrainInterval)
		}
	}

	handlers := httpapi.Handlers{
		OrderAPI:     httpapi.NewOrderAPI(orderService),
		CheckoutAPI:  httpapi.NewCheckoutAPI(checkoutWorkflows, cartService),
		ChangeSetAPI: httpapi.NewChangeSetAPI(changeSetService),
		CartAPI:      httpapi.NewCartAPI(cartService),
		CustomerAPI:  httpapi.NewCustomerAPI(customerService),
	}

	router := httpapi.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("commerce API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("commerce API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func gatewayConfig(cfg Config) ordersgateway.Config {
	gw := ordersgateway.Config{
		DeclineAuthorizations: cfg.GatewayDeclineAuth,
		DeclineCaptures:       cfg.GatewayDeclineCapture,
	}
	if cfg.GatewayDeclineOver != "" {
		if limit, err := decimal.NewFromString(cfg.GatewayDeclineOver); err == nil {
			gw.DeclineOver = &limit
		}
	}
	return gw
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
