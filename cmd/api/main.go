package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lavexpress/booking-platform/cmd/mainconfig"
	"github.com/lavexpress/booking-platform/internal/api/router"
	"github.com/lavexpress/booking-platform/internal/bookings"
	"github.com/lavexpress/booking-platform/internal/catalog"
	appconfig "github.com/lavexpress/booking-platform/internal/config"
	"github.com/lavexpress/booking-platform/internal/conversation"
	"github.com/lavexpress/booking-platform/internal/messaging"
	"github.com/lavexpress/booking-platform/internal/notify"
	"github.com/lavexpress/booking-platform/internal/observability/metrics"
	"github.com/lavexpress/booking-platform/internal/payments"
	"github.com/lavexpress/booking-platform/internal/scheduling"
	"github.com/lavexpress/booking-platform/internal/wompi"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking platform API",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("failed to ping redis", "error", err)
		os.Exit(1)
	}

	// Repositories and domain services.
	catalogRepo := catalog.NewRepository(db)
	bookingRepo := bookings.NewRepository(db)
	processedStore := payments.NewProcessedStore(db)
	stateStore := conversation.NewStore(redisClient, cfg.ConversationStateTTL)
	availability := scheduling.NewAvailability(catalogRepo, bookingRepo)

	whatsapp := messaging.NewWhatsAppClient(
		cfg.WhatsAppPhoneNumberID,
		cfg.WhatsAppAccessToken,
		cfg.WhatsAppAPIVersion,
		logger,
	)
	wompiClient := wompi.NewClient(cfg.WompiPrivateKey, cfg.WompiEnvironment, logger)

	orchestrator := bookings.NewOrchestrator(bookingRepo, wompiClient, cfg.WompiCurrency, logger)
	engine := conversation.NewEngine(stateStore, catalogRepo, availability, orchestrator, logger)

	dispatcher := notify.NewDispatcher(whatsapp, catalogRepo, logger)
	callbackService := payments.NewCallbackService(bookingRepo, processedStore, dispatcher, logger)
	statusService := bookings.NewStatusService(bookingRepo, dispatcher, logger)

	// Queue: in-memory for single-instance deployments, SQS otherwise.
	var queuePublisher *conversation.Publisher
	var worker *conversation.Worker
	bookingMetrics := metrics.NewBookingMetrics(nil)

	if cfg.UseMemoryQueue {
		queue := conversation.NewMemoryQueue(256)
		queuePublisher = conversation.NewPublisher(queue, logger)
		worker = conversation.NewWorker(engine, queue, whatsapp, callbackService, logger,
			conversation.WithWorkerCount(cfg.WorkerCount),
			conversation.WithWorkerMetrics(bookingMetrics),
		)
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := conversation.NewSQSQueue(awssqs.NewFromConfig(awsCfg), cfg.BookingQueueURL)
		queuePublisher = conversation.NewPublisher(queue, logger)
		worker = conversation.NewWorker(engine, queue, whatsapp, callbackService, logger,
			conversation.WithWorkerCount(cfg.WorkerCount),
			conversation.WithWorkerMetrics(bookingMetrics),
		)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	worker.Start(workerCtx)

	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppWebhook: messaging.NewWebhookHandler(cfg.WhatsAppVerifyToken, queuePublisher, bookingMetrics, logger),
		PaymentWebhook:  payments.NewWebhookHandler(queuePublisher, bookingMetrics, logger),
		BookingsHandler: bookings.NewHandler(statusService, bookingRepo, logger),
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	stopWorkers()
	worker.Wait()

	logger.Info("server stopped")
}
