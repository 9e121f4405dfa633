package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/repository"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort        string
	DB              repository.Credentials
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroupID    string
	JWTSecret       string
	LogLevel        string
	DefaultLanguage string

	PaymentGatewayURL string
	PaymentGatewayKey string
	PaymentTimeout    time.Duration

	// CheckoutLockTimeout bounds the wait for cart and tyre row locks.
	CheckoutLockTimeout time.Duration

	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	Currency              string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	OutboxInterval  time.Duration
	RecoveryTick    time.Duration

	PostmarkToken string
	EmailSender   string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return FromEnv()
}

// LoadDatabase reads only the DB_* settings, for tooling that never
// serves requests.
func LoadDatabase() (repository.Credentials, error) {
	if err := loadDotEnv(); err != nil {
		return repository.Credentials{}, err
	}
	var errs []error
	cred := databaseFromEnv(&errs)
	return cred, errors.Join(errs...)
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	return nil
}

func databaseFromEnv(errs *[]error) repository.Credentials {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid DB_PORT: %w", err))
	}
	return repository.Credentials{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "athometyre"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func FromEnv() (*Config, error) {
	var errs []error
	durationEnv := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnv(key, def))
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("invalid %s: %q", key, getEnv(key, def)))
		}
		return d
	}
	decimalEnv := func(key, def string) decimal.Decimal {
		d, err := decimal.NewFromString(getEnv(key, def))
		if err != nil || d.IsNegative() {
			errs = append(errs, fmt.Errorf("invalid %s: %q", key, getEnv(key, def)))
		}
		return d
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DB:              databaseFromEnv(&errs),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "athometyre-orders"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "athometyre-notifier"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),

		PaymentGatewayURL: os.Getenv("PAYMENT_GATEWAY_URL"),
		PaymentGatewayKey: os.Getenv("PAYMENT_GATEWAY_KEY"),
		PaymentTimeout:    durationEnv("PAYMENT_TIMEOUT", "10s"),

		CheckoutLockTimeout: durationEnv("CHECKOUT_LOCK_TIMEOUT", "10s"),

		FreeShippingThreshold: decimalEnv("FREE_SHIPPING_THRESHOLD", "5000"),
		ShippingFee:           decimalEnv("SHIPPING_FEE", "500"),
		Currency:              getEnv("CURRENCY", "INR"),

		RequestTimeout:  durationEnv("REQUEST_TIMEOUT", "30s"),
		ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", "15s"),
		OutboxInterval:  durationEnv("OUTBOX_INTERVAL", "1s"),
		RecoveryTick:    durationEnv("RECOVERY_INTERVAL", "30s"),

		PostmarkToken: os.Getenv("POSTMARK_TOKEN"),
		EmailSender:   getEnv("EMAIL_SENDER", "orders@athometyre.in"),
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if cfg.RequestTimeout > 0 && cfg.PaymentTimeout >= cfg.RequestTimeout {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be shorter than REQUEST_TIMEOUT"))
	} else if cfg.RequestTimeout > 0 && cfg.CheckoutLockTimeout+cfg.PaymentTimeout >= cfg.RequestTimeout {
		errs = append(errs, errors.New("CHECKOUT_LOCK_TIMEOUT plus PAYMENT_TIMEOUT must be shorter than REQUEST_TIMEOUT"))
	}
	if len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stuckMargin covers the writes after a charge and clock skew between the
// service and the database.
const stuckMargin = 30 * time.Second

// StuckAfter is how long a checkout may stay IN_PROGRESS before the
// recovery loop parks it for reconciliation. A live checkout ends by
// RequestTimeout, or PaymentTimeout after that for a charge already sent.
func (c *Config) StuckAfter() time.Duration {
	return c.RequestTimeout + c.PaymentTimeout + stuckMargin
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
