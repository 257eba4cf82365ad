package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/kasbook/kasbook/internal/adapter/http"
	"github.com/kasbook/kasbook/internal/adapter/http/handler"
	"github.com/kasbook/kasbook/internal/adapter/http/middleware"
	postgresRepo "github.com/kasbook/kasbook/internal/adapter/repository/postgres"
	redisRepo "github.com/kasbook/kasbook/internal/adapter/repository/redis"
	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/infrastructure/clock"
	"github.com/kasbook/kasbook/internal/infrastructure/config"
	"github.com/kasbook/kasbook/internal/infrastructure/eventpublisher"
	"github.com/kasbook/kasbook/internal/infrastructure/logger"
	"github.com/kasbook/kasbook/internal/infrastructure/logging"
	"github.com/kasbook/kasbook/internal/infrastructure/metrics"
	"github.com/kasbook/kasbook/internal/infrastructure/postgres"
	"github.com/kasbook/kasbook/internal/infrastructure/redis"
	"github.com/kasbook/kasbook/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger
	slogLogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx := context.Background()

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	documentRepo := postgresRepo.NewDocumentRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	sequenceRepo := postgresRepo.NewSequenceRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	systemClock := clock.New()

	// Initialize use cases
	journalUC := usecase.NewJournalUseCase(txManager, journalRepo, ledgerRepo, sequenceRepo, outboxRepo, auditRepo, idGen, systemClock).
		WithRetrier(postgresRepo.NewRetrier())
	documentUC := usecase.NewDocumentUseCase(txManager, documentRepo, sequenceRepo, outboxRepo, auditRepo, idGen, systemClock)
	paymentUC := usecase.NewPaymentUseCase(txManager, paymentRepo, documentRepo, sequenceRepo, outboxRepo, auditRepo, idGen, systemClock)
	ledgerUC := usecase.NewLedgerUseCase(txManager, ledgerRepo, auditRepo, idGen, systemClock)

	// Initialize handlers
	journalHandler := handler.NewJournalHandler(journalUC)
	invoiceHandler := handler.NewDocumentHandler(documentUC, domain.DocumentKindInvoice)
	billHandler := handler.NewDocumentHandler(documentUC, domain.DocumentKindBill)
	paymentHandler := handler.NewPaymentHandler(paymentUC)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC, documentUC, cache)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		JournalHandler:    journalHandler,
		InvoiceHandler:    invoiceHandler,
		BillHandler:       billHandler,
		PaymentHandler:    paymentHandler,
		LedgerHandler:     ledgerHandler,
		HealthHandler:     healthHandler,
		LoggingMiddleware: middleware.NewLoggingMiddleware(appLogger),
		IdempotencyStore:  idempotencyStore,
		RateLimiter:       rateLimiter,
		MetricsHandler:    promhttp.Handler(),
	})

	// Create server
	server := &http.Server{
		Addr:         serverAddr(cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	// Outbox publisher worker
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(slogLogger.Logger),
		Logger:     slogLogger.Logger,
		Metrics:    appMetrics,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Overdue sweep worker
	go runOverdueSweep(workerCtx, documentUC, appMetrics, cfg.OverdueSweepInterval, cfg.OverdueSweepBatchSize)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func serverAddr(port string) string {
	return fmt.Sprintf(":%s", port)
}

// runOverdueSweep periodically marks approved documents past their due date.
func runOverdueSweep(ctx context.Context, documentUC *usecase.DocumentUseCase, m *metrics.Metrics, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			marked, err := documentUC.MarkOverdue(ctx, batchSize)
			if err != nil {
				log.Error().Err(err).Msg("overdue sweep failed")
				continue
			}
			if marked > 0 {
				m.DocumentsOverdue.Add(float64(marked))
				log.Info().Int("marked", marked).Msg("documents marked overdue")
			}
		}
	}
}
