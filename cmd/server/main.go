package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/customer-ledger/internal/config"
	"github.com/sheikh-saqib/customer-ledger/internal/events"
	"github.com/sheikh-saqib/customer-ledger/internal/events/kafka"
	"github.com/sheikh-saqib/customer-ledger/internal/events/redis"
	hrest "github.com/sheikh-saqib/customer-ledger/internal/handler/rest"
	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-ledger/internal/ledger"
	"github.com/sheikh-saqib/customer-ledger/internal/logging"
	"github.com/sheikh-saqib/customer-ledger/internal/router"
	"github.com/sheikh-saqib/customer-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/customer-ledger/internal/storage/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// amounts and balances go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	ledgerService := ledger.NewLedger(store,
		ledger.WithPublisher(publisher),
		ledger.WithLogger(logger.Named("ledger")),
		ledger.WithLocation(cfg.Location),
	)

	handler := hrest.NewLedgerRestHandler(ledgerService, hrest.NewHeaderResolver(cfg.LookupHeader), logger.Named("http"))
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router.SetupRoutes(handler, logger.Named("access"), router.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			LookupHeader:   cfg.LookupHeader,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.String("events", cfg.EventsDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newStore(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (interfaces.CustomerStore, func(), error) {
	if cfg.StoreDriver != config.StorePostgres {
		return memory.NewMemoryCustomerStore(), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := postgres.NewPostgresCustomerStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("connected to postgres")
	return store, func() { db.Close() }, nil
}

func newPublisher(cfg config.AppConfig, logger *zap.Logger) interfaces.EventPublisher {
	switch cfg.EventsDriver {
	case config.EventsKafka:
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case config.EventsRedis:
		logger.Info("publishing events to redis", zap.String("addr", cfg.RedisAddr), zap.String("channel", cfg.RedisChannel))
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
		})
		return redis.NewPublisher(rdb, cfg.RedisChannel)
	default:
		return events.Nop{}
	}
}
