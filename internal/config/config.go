package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type PaymentConfig struct {
	Mode               string // "mock" or "real"
	InitiateURL        string
	APIKey             string
	APISecret          string
	RequestTimeout     time.Duration
	SuccessCallbackURL string
	FailureCallbackURL string
	RedirectBaseURL    string
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Payment  PaymentConfig
}

// NewConfig reads configuration from the environment, loading .env first if present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")

	var err error
	if cfg.Postgres.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = requireEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Postgres.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MaxConns = int32(getEnvInt("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(getEnvInt("DB_MIN_CONNS", 2))
	cfg.Postgres.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	cfg.Payment.Mode = getEnv("PAYMENT_MODE", "mock")
	cfg.Payment.InitiateURL = os.Getenv("PG_INITIATE_URL")
	cfg.Payment.APIKey = os.Getenv("PG_API_KEY")
	cfg.Payment.APISecret = os.Getenv("PG_API_SECRET")
	cfg.Payment.RequestTimeout = getEnvDuration("PG_REQUEST_TIMEOUT", 10*time.Second)
	cfg.Payment.RedirectBaseURL = getEnv("PAYMENT_REDIRECT_BASE_URL", "http://localhost:"+cfg.App.Port)
	cfg.Payment.SuccessCallbackURL = getEnv("PAYMENT_SUCCESS_CALLBACK_URL",
		cfg.Payment.RedirectBaseURL+"/payments/mock-callback/success")
	cfg.Payment.FailureCallbackURL = getEnv("PAYMENT_FAILURE_CALLBACK_URL",
		cfg.Payment.RedirectBaseURL+"/payments/mock-callback/failure")

	if cfg.Payment.Mode == "real" && cfg.Payment.InitiateURL == "" {
		return nil, fmt.Errorf("config: PG_INITIATE_URL is required when PAYMENT_MODE=real")
	}

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("config: %s is required", key)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
