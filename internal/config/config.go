package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	HTTPPort int

	JWTSecret string
	TokenTTL  time.Duration

	// InitialBalanceCents is the balance assigned to an account when it is
	// created at first sign-in. Policy lives here, not in the transfer engine.
	InitialBalanceCents int64

	KafkaBrokerURL           string
	KafkaTransferEventsTopic string

	OutboxPollInterval time.Duration
	OutboxPollTimeout  time.Duration

	MigrationsPath string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.Host = getEnvOrDefault("WALLET_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("WALLET_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("WALLET_DB_USER", "wallet")
	cfg.DBConfig.Password = getEnvOrDefault("WALLET_DB_PASSWORD", "wallet")
	cfg.DBConfig.Name = getEnvOrDefault("WALLET_DB_NAME", "wallet_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("WALLET_DB_SSLMODE", "disable")

	cfg.HTTPPort = getEnvAsInt("WALLET_HTTP_PORT", 4000)

	cfg.JWTSecret = getEnvOrDefault("WALLET_JWT_SECRET", "")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("WALLET_JWT_SECRET is required")
	}
	cfg.TokenTTL = getEnvAsDuration("WALLET_TOKEN_TTL", 24*time.Hour)

	cfg.InitialBalanceCents = getEnvAsInt64("WALLET_INITIAL_BALANCE_CENTS", 100000)

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaTransferEventsTopic = getEnvOrDefault("KAFKA_TRANSFER_EVENTS_TOPIC", "wallet_transfer_events")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)

	cfg.MigrationsPath = getEnvOrDefault("WALLET_MIGRATIONS_PATH", "file://migrations")

	return cfg, nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnvOrDefault(key, strconv.FormatInt(defaultValue, 10))
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
