package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "storefront", cfg.Mongo.Database)
	assert.Equal(t, "order_queue", cfg.RabbitMQ.Queue)
	assert.Equal(t, "INR", cfg.Gateway.Currency)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.Tolerance)
	assert.Equal(t, 72*time.Hour, cfg.Webhook.LedgerTTL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("GATEWAY_KEY_ID", "rzp_test_key")
	t.Setenv("GATEWAY_KEY_SECRET", "rzp_test_secret")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("WEBHOOK_SECRET", "whsec")
	t.Setenv("WEBHOOK_TOLERANCE", "1m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AppPort)
	assert.Equal(t, "rzp_test_key", cfg.Gateway.KeyID)
	assert.Equal(t, "rzp_test_secret", cfg.Gateway.KeySecret)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "whsec", cfg.Webhook.Secret)
	assert.Equal(t, time.Minute, cfg.Webhook.Tolerance)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingSecrets(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_KEY_ID")
	assert.Contains(t, err.Error(), "GATEWAY_KEY_SECRET")
	assert.Contains(t, err.Error(), "WEBHOOK_SECRET")
}
