package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_billing/internal/catalog"
	"github.com/fjod/go_billing/internal/config"
	h "github.com/fjod/go_billing/internal/http"
	"github.com/fjod/go_billing/internal/ledger"
	"github.com/fjod/go_billing/internal/logger"
	"github.com/fjod/go_billing/internal/notify"
	"github.com/fjod/go_billing/internal/payment"
	"github.com/fjod/go_billing/internal/publisher"
	"github.com/fjod/go_billing/internal/service"
	"github.com/fjod/go_billing/internal/session"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog
	products, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		zl.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer products.Close()
	if err := products.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		zl.Fatal("Failed to migrate catalog", zap.Error(err))
	}

	// Order ledger
	orders, err := ledger.NewRepository(&cfg.Ledger)
	if err != nil {
		zl.Fatal("Failed to connect to ledger", zap.Error(err))
	}
	defer orders.Close()
	if err := orders.RunMigrations(&cfg.Ledger); err != nil {
		zl.Fatal("Failed to migrate ledger", zap.Error(err))
	}
	zl.Info("Connected to ledger", zap.String("host", cfg.Ledger.Host), zap.String("db", cfg.Ledger.DBName))

	sessions := session.NewManager(sessionRepository(ctx, cfg, zl), sessionCache(ctx, cfg, zl), zl.Named("session"))

	var gateway payment.Gateway = payment.LocalGateway{}
	if cfg.UseRazorpay() {
		gateway = payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, zl.Named("razorpay"))
		zl.Info("Payment references from Razorpay")
	}
	generator := payment.NewGenerator(cfg.Merchant, gateway)

	broker := notify.NewBroker()
	billing := service.NewBillingService(orders, sessions, generator, broker)

	poller := publisher.NewOutboxPoller(orders, cfg.PaymentReviewAfter, zl.Named("outbox"), cfg.KafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)
	if len(cfg.KafkaBrokers) > 0 {
		zl.Info("Publishing payment outcomes", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", publisher.Topic))
	}

	router := h.NewRouter(h.RouterConfig{
		Products:  h.NewProductHandler(products, cfg.RequestTimeout),
		Sessions:  h.NewSessionHandler(sessions, products, cfg.RequestTimeout),
		Checkout:  h.NewCheckoutHandler(billing, sessions, cfg.RequestTimeout),
		Orders:    h.NewOrdersHandler(orders, cfg.RequestTimeout),
		Events:    h.NewEventsHandler(broker),
		Ledger:    orders,
		StaticDir: cfg.StaticDir,
		Logger:    zl,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     otelhttp.NewHandler(router, "pos-server"),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		zl.Info("POS server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zl.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	zl.Info("server exited")
}

// sessionRepository keeps sessions in MongoDB when MONGO_URI is set, in memory otherwise.
func sessionRepository(ctx context.Context, cfg *config.Config, zl *zap.Logger) session.Repository {
	if cfg.Mongo.URI == "" {
		zl.Info("Sessions kept in memory")
		return session.NewMemoryRepository()
	}

	db, err := session.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		zl.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	repo := session.NewMongoRepository(db)
	if err := repo.CreateIndexes(ctx); err != nil {
		zl.Fatal("Failed to create session indexes", zap.Error(err))
	}
	zl.Info("Connected to MongoDB", zap.String("db", cfg.Mongo.Database), zap.Uint64("max_pool_size", cfg.Mongo.MaxPoolSize))
	return repo
}

// sessionCache returns nil (no cache) unless REDIS_ADDR is set.
func sessionCache(ctx context.Context, cfg *config.Config, zl *zap.Logger) session.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		zl.Fatal("Redis connection failed", zap.Error(err))
	}
	zl.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))
	return session.NewRedisCache(client)
}
