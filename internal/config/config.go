// Package config loads process configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_billing/internal/ledger"
	"github.com/fjod/go_billing/internal/payment"
	"github.com/fjod/go_billing/internal/session"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	StaticDir       string

	CatalogDBPath         string
	CatalogMigrationsPath string
	Ledger                ledger.Credentials

	Mongo         session.MongoConfig
	RedisAddr     string
	RedisPassword string
	KafkaBrokers  []string

	Merchant           payment.Merchant
	RazorpayKeyID      string
	RazorpayKeySecret  string
	PaymentReviewAfter time.Duration
}

// Load reads envFiles (missing files are ignored) and then the environment.
// Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		StaticDir:             getEnv("STATIC_DIR", ""),
		CatalogDBPath:         getEnv("CATALOG_DB_PATH", "catalog.db"),
		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),
		Ledger: ledger.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "billing"),
			MigrationsDirPath: getEnv("LEDGER_MIGRATIONS_PATH", "./internal/ledger/migrations"),
		},
		Mongo: session.MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DB_NAME", "billing"),
		},
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:  splitList(getEnv("KAFKA_BROKERS", "")),
		Merchant: payment.Merchant{
			VPA:    getEnv("MERCHANT_VPA", "merchant@upi"),
			Name:   getEnv("MERCHANT_NAME", "ClothShop"),
			Scheme: getEnv("PAYMENT_SCHEME", "upi"),
		},
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
	}

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Ledger.Port = port

	if cfg.Mongo.MaxPoolSize, err = strconv.ParseUint(getEnv("MONGO_MAX_POOL_SIZE", "20"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MONGO_MAX_POOL_SIZE: %w", err)
	}
	if cfg.Mongo.ConnectTimeout, err = getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Mongo.ServerSelectionTimeout, err = getDuration("MONGO_SERVER_SELECTION_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PaymentReviewAfter, err = getDuration("PAYMENT_REVIEW_AFTER", 15*time.Minute); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Merchant.VPA) == "" {
		return nil, fmt.Errorf("MERCHANT_VPA must not be empty")
	}
	if (cfg.RazorpayKeyID == "") != (cfg.RazorpayKeySecret == "") {
		return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together")
	}
	return cfg, nil
}

// UseRazorpay reports whether payment references come from Razorpay.
func (c *Config) UseRazorpay() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
