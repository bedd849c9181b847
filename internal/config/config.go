package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration. It is built once at startup and
// handed to constructors; nothing reads the environment after Load.
type Config struct {
	AppPort     string
	DatabaseDSN string
	JWTSecret   string
	LogLevel    string
	Mongo       MongoConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	Gateway     GatewayConfig
	Webhook     WebhookConfig
}

// MongoConfig locates the order store.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig locates the webhook event ledger. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig locates the order event broker. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// GatewayConfig holds the payment gateway credentials. KeySecret is also the
// HMAC key for client-side payment signatures.
type GatewayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

// WebhookConfig holds the secret used to sign server-to-server callbacks.
type WebhookConfig struct {
	Secret    string
	Tolerance time.Duration
	LedgerTTL time.Duration
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=storefront port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "change_me")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "storefront")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "order_queue")
	v.SetDefault("GATEWAY_KEY_ID", "")
	v.SetDefault("GATEWAY_KEY_SECRET", "")
	v.SetDefault("GATEWAY_BASE_URL", "https://api.razorpay.com")
	v.SetDefault("GATEWAY_CURRENCY", "INR")
	v.SetDefault("GATEWAY_TIMEOUT", 10*time.Second)
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("WEBHOOK_TOLERANCE", 5*time.Minute)
	v.SetDefault("WEBHOOK_LEDGER_TTL", 72*time.Hour)
}

// Load reads the configuration from the environment (and a config file, if
// one was set on v) into a Config.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:     v.GetString("APP_PORT"),
		DatabaseDSN: v.GetString("DATABASE_DSN"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
		Gateway: GatewayConfig{
			KeyID:     v.GetString("GATEWAY_KEY_ID"),
			KeySecret: v.GetString("GATEWAY_KEY_SECRET"),
			BaseURL:   v.GetString("GATEWAY_BASE_URL"),
			Currency:  v.GetString("GATEWAY_CURRENCY"),
			Timeout:   v.GetDuration("GATEWAY_TIMEOUT"),
		},
		Webhook: WebhookConfig{
			Secret:    v.GetString("WEBHOOK_SECRET"),
			Tolerance: v.GetDuration("WEBHOOK_TOLERANCE"),
			LedgerTTL: v.GetDuration("WEBHOOK_LEDGER_TTL"),
		},
	}
	return cfg, nil
}

// Validate reports settings the server cannot run without.
func (c *Config) Validate() error {
	missing := make([]string, 0)
	if c.Gateway.KeyID == "" {
		missing = append(missing, "GATEWAY_KEY_ID")
	}
	if c.Gateway.KeySecret == "" {
		missing = append(missing, "GATEWAY_KEY_SECRET")
	}
	if c.Webhook.Secret == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}
