package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDevEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "dev")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("WEBHOOK_SIGNING_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setDevEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.Webhook.ReplayWindow)
	assert.Equal(t, time.Hour, cfg.Payments.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.Payments.ProcessedTTL)
	assert.Equal(t, 72*time.Hour, cfg.Payments.UnprocessedTTL)
	assert.Equal(t, 24*time.Hour, cfg.Payments.VerificationFreshness)
	assert.Equal(t, "/webhook", cfg.Webhook.Path)
	assert.False(t, cfg.Webhook.SignatureBypass)
	assert.False(t, cfg.Payments.CheckoutStrict)
	assert.True(t, cfg.IsDev())
}

func TestLoadConfig_SigningSecretFallsBackToBotToken(t *testing.T) {
	setDevEnv(t)
	t.Setenv("WEBHOOK_SIGNING_SECRET", "")
	t.Setenv("TG_API_KEY", "123:abc")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Webhook.SigningSecret)
}

func TestLoadConfig_BypassForbiddenInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_NAME", "bot")
	t.Setenv("TG_API_KEY", "123:abc")
	t.Setenv("WEBHOOK_SIGNATURE_BYPASS", "true")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_SIGNATURE_BYPASS")
}

func TestLoadConfig_ProductionRequiresDatabase(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("TG_API_KEY", "123:abc")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_ENABLED=false")
}

func TestLoadConfig_ProductionRequiresAdminToken(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_NAME", "bot")
	t.Setenv("TG_API_KEY", "123:abc")
	t.Setenv("PAYMENT_ADMIN_TOKEN", "")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_ADMIN_TOKEN")

	t.Setenv("PAYMENT_ADMIN_TOKEN", "admin-secret")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "admin-secret", cfg.Payments.AdminToken)
}

func TestLoadConfig_LockOutlivesUpdateTimeout(t *testing.T) {
	setDevEnv(t)
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Greater(t, cfg.Redis.LockTTL, cfg.Webhook.UpdateTimeout)

	t.Setenv("WEBHOOK_UPDATE_TIMEOUT", "2m")
	_, err = LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_LOCK_TTL")

	t.Setenv("REDIS_LOCK_TTL", "3m")
	_, err = LoadConfig("")
	require.NoError(t, err)
}

func TestLoadConfig_TTLOrder(t *testing.T) {
	setDevEnv(t)
	t.Setenv("PAYMENT_PROCESSED_TTL", "48h")
	t.Setenv("PAYMENT_UNPROCESSED_TTL", "24h")

	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	assert.Equal(t, []string{"a:9092", "b:9092"}, getEnvList("KAFKA_BROKERS", nil))
}
