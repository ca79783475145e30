package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/seytkalikov/stock-ledger/internal/ledger"
	eventDelivery "github.com/seytkalikov/stock-ledger/internal/ledger/delivery/event"
	httpDelivery "github.com/seytkalikov/stock-ledger/internal/ledger/delivery/http"
	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/internal/ledger/usecase/command"
	"github.com/seytkalikov/stock-ledger/kafka"
	"github.com/seytkalikov/stock-ledger/pkg/database"
	"github.com/seytkalikov/stock-ledger/pkg/logger"
	"github.com/seytkalikov/stock-ledger/pkg/tracing"
)

func main() {
	serviceName := getEnv("OTEL_SERVICE_NAME", "stock-ledger")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting stock ledger service")

	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "stockledgerdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(
		&domain.StockLevel{},
		&domain.StockMovement{},
		&domain.Product{},
		&domain.Package{},
		&domain.PackageItem{},
		&domain.Warehouse{},
	); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Separate raw connection for health-check pings.
	healthDB, err := database.NewPostgresConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to open health-check connection")
	}
	defer healthDB.Close()

	logger.Logger.Info().Msg("Database initialized successfully")

	engineConfig := command.EngineConfig{
		DefaultWarehouseID: uintEnv("DEFAULT_WAREHOUSE_ID"),
		ChannelWarehouses:  parseChannelWarehouses(getEnv("CHANNEL_WAREHOUSES", "")),
	}

	// Kafka is optional: without brokers the service still serves HTTP.
	var publisher command.MovementPublisher
	var kafkaPublisher *kafka.Publisher
	brokers := splitNonEmpty(getEnv("KAFKA_BROKERS", ""))
	if len(brokers) > 0 {
		kafkaPublisher, err = kafka.NewPublisher(brokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	handler, err := ledger.InitializeStockHandler(db, engineConfig, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(brokers) > 0 {
		deductHandler, err := ledger.InitializeDeductHandler(db, engineConfig, publisher)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize deduction engine")
		}

		consumer, err := kafka.NewConsumer(
			brokers,
			getEnv("KAFKA_GROUP_ID", "stock-ledger"),
			[]string{kafka.TopicOrderShipped, kafka.TopicShipmentItemShipped},
		)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		defer consumer.Close()

		fulfillment := eventDelivery.NewFulfillmentHandler(deductHandler)
		consumer.RegisterHandler(kafka.EventTypeOrderShipped, fulfillment.HandleLine)
		consumer.RegisterHandler(kafka.EventTypeShipmentItemShipped, fulfillment.HandleLine)

		if err := consumer.Start(ctx); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
	}

	var redisClient *redis.Client
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
		logger.Logger.Info().Str("addr", addr).Msg("Redis response cache enabled")
	}

	httpPort := getEnv("HTTP_PORT", "8084")
	startHTTPServer(handler, healthDB, redisClient, serviceName, httpPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startHTTPServer(handler *httpDelivery.StockHandler, db *sql.DB, redisClient *redis.Client, serviceName, port string) {
	router := mux.NewRouter()

	if redisClient != nil {
		cacheTTL := time.Duration(intEnv("CACHE_TTL_SECONDS", 30)) * time.Second
		router.Use(httpDelivery.CacheMiddleware(redisClient, cacheTTL))
	}

	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, db)
	httpDelivery.RegisterSwaggerDocs(router)

	router.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	go func() {
		wrapped := otelhttp.NewHandler(c.Handler(router), serviceName)
		if err := http.ListenAndServe(":"+port, wrapped); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func uintEnv(key string) uint {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint(n)
		}
	}
	return 0
}

// parseChannelWarehouses parses "pos=1,marketplace=2" into a channel map.
func parseChannelWarehouses(raw string) map[string]uint {
	mapping := make(map[string]uint)
	for _, pair := range splitNonEmpty(raw) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			continue
		}
		mapping[strings.TrimSpace(parts[0])] = uint(id)
	}
	return mapping
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
