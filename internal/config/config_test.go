package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so ambient environment
// never leaks into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "VERIFY_TOKEN", "WEBHOOK_ASYNC", "DB_PATH",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "OPENAI_TIMEOUT_SEC",
		"OPENAI_MAX_TOKENS", "OPENAI_TEMPERATURE",
		"ACADEMY_NAME", "ACADEMY_ADDRESS", "ACADEMY_PHONE", "ACADEMY_HOURS",
		"WHATSAPP_PROVIDER", "WHATSAPP_SEND_TIMEOUT_SEC",
		"META_ACCESS_TOKEN", "META_PHONE_NUMBER_ID",
		"ZAPI_INSTANCE_ID", "ZAPI_TOKEN", "ZAPI_BASE_URL",
		"WATI_API_KEY", "WATI_BASE_URL",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER",
		"TRACING_ENABLED", "TRACING_SERVICE_NAME", "TRACING_OTLP_ENDPOINT",
		"TRACING_SAMPLE_RATE", "TRACING_USE_STDOUT",
		"GYMCONNECT_ENV", "LOG_LEVEL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, DefaultVerifyToken, cfg.Server.VerifyToken)
	assert.False(t, cfg.Server.AsyncWebhooks)
	assert.Equal(t, "data/gymconnect.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 150, cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 0.001)
	assert.Equal(t, "zapi", cfg.WhatsApp.Provider)
	assert.Equal(t, "development", cfg.Tracing.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("VERIFY_TOKEN", "super-secret")
	t.Setenv("WEBHOOK_ASYNC", "true")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_TIMEOUT_SEC", "10")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("WHATSAPP_PROVIDER", "twilio")
	t.Setenv("ACADEMY_NAME", "Academia Corpo & Mente")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "super-secret", cfg.Server.VerifyToken)
	assert.True(t, cfg.Server.AsyncWebhooks)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 10*time.Second, cfg.OpenAI.Timeout)
	assert.InDelta(t, 0.2, cfg.OpenAI.Temperature, 0.001)
	assert.Equal(t, "twilio", cfg.WhatsApp.Provider)
	assert.Equal(t, "Academia Corpo & Mente", cfg.Business.Name)
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_MAX_TOKENS", "lots")
	t.Setenv("OPENAI_TEMPERATURE", "warm")
	t.Setenv("WEBHOOK_ASYNC", "sim")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 150, cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 0.001)
	assert.False(t, cfg.Server.AsyncWebhooks)
}

func TestLoadProductionRequiresAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GYMCONNECT_ENV", "production")
	t.Setenv("VERIFY_TOKEN", "super-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadProductionRejectsDefaultVerifyToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("GYMCONNECT_ENV", "production")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification token")
}

func TestLoadProductionValid(t *testing.T) {
	clearEnv(t)
	t.Setenv("GYMCONNECT_ENV", "production")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VERIFY_TOKEN", "super-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Tracing.Environment)
}
