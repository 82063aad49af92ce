package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gymconnect/internal/constants"
	"gymconnect/internal/models"
)

var (
	ErrMissingDBPath      = models.ConfigError{Message: "missing database path"}
	ErrMissingVerifyToken = models.ConfigError{Message: "verification token must not be empty"}
)

// DefaultVerifyToken is the development handshake secret. Production
// deployments must override it via VERIFY_TOKEN.
const DefaultVerifyToken = "gymconnect_verify"

// Load builds the process configuration from environment variables.
// The result is immutable application state: components receive it by
// injection and never read the environment at call time.
func Load() (*models.Config, error) {
	cfg := &models.Config{
		Server: models.ServerConfig{
			Port:          getenv("PORT", constants.DefaultPort),
			VerifyToken:   getenv("VERIFY_TOKEN", DefaultVerifyToken),
			AsyncWebhooks: getenvBool("WEBHOOK_ASYNC", false),
		},
		Database: models.DatabaseConfig{
			Path: getenv("DB_PATH", "data/gymconnect.db"),
		},
		OpenAI: models.OpenAIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       getenv("OPENAI_MODEL", constants.DefaultOpenAIModel),
			BaseURL:     getenv("OPENAI_BASE_URL", constants.DefaultOpenAIBaseURL),
			Timeout:     time.Duration(getenvInt("OPENAI_TIMEOUT_SEC", constants.DefaultOpenAITimeoutSec)) * time.Second,
			MaxTokens:   getenvInt("OPENAI_MAX_TOKENS", constants.DefaultMaxTokens),
			Temperature: getenvFloat("OPENAI_TEMPERATURE", constants.DefaultTemperature),
		},
		Business: models.BusinessConfig{
			Name:    getenv("ACADEMY_NAME", "Academia Fit"),
			Address: getenv("ACADEMY_ADDRESS", "Rua Exemplo, 123 - Centro"),
			Phone:   getenv("ACADEMY_PHONE", "(11) 99999-9999"),
			Hours:   getenv("ACADEMY_HOURS", "Segunda a Sexta: 6h às 22h | Sábado: 8h às 18h | Domingo: 9h às 13h"),
		},
		WhatsApp: models.WhatsAppConfig{
			Provider: getenv("WHATSAPP_PROVIDER", "zapi"),
			Timeout:  time.Duration(getenvInt("WHATSAPP_SEND_TIMEOUT_SEC", constants.DefaultSendTimeoutSec)) * time.Second,
			Meta: models.MetaConfig{
				AccessToken:   os.Getenv("META_ACCESS_TOKEN"),
				PhoneNumberID: os.Getenv("META_PHONE_NUMBER_ID"),
			},
			ZAPI: models.ZAPIConfig{
				InstanceID: os.Getenv("ZAPI_INSTANCE_ID"),
				Token:      os.Getenv("ZAPI_TOKEN"),
				BaseURL:    getenv("ZAPI_BASE_URL", constants.DefaultZAPIBaseURL),
			},
			WATI: models.WATIConfig{
				APIKey:  os.Getenv("WATI_API_KEY"),
				BaseURL: getenv("WATI_BASE_URL", constants.DefaultWATIBaseURL),
			},
			Twilio: models.TwilioConfig{
				AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
				AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
				FromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
			},
		},
		Tracing: models.TracingConfig{
			Enabled:      getenvBool("TRACING_ENABLED", false),
			ServiceName:  getenv("TRACING_SERVICE_NAME", "gymconnect"),
			Environment:  getenv("GYMCONNECT_ENV", "development"),
			OTLPEndpoint: getenv("TRACING_OTLP_ENDPOINT", "localhost:4318"),
			SampleRate:   getenvFloat("TRACING_SAMPLE_RATE", 1.0),
			UseStdout:    getenvBool("TRACING_USE_STDOUT", true),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Server.VerifyToken == "" {
		return ErrMissingVerifyToken
	}

	isProduction := c.Tracing.Environment == "production"
	if isProduction {
		if c.OpenAI.APIKey == "" {
			return models.ConfigError{Message: "OPENAI_API_KEY is required in production"}
		}
		if c.Server.VerifyToken == DefaultVerifyToken {
			return models.ConfigError{Message: "default verification token must not be used in production (set VERIFY_TOKEN)"}
		}
	} else if c.OpenAI.APIKey == "" {
		fmt.Fprintf(os.Stderr, "WARNING: OPENAI_API_KEY not set. Replies will degrade to the fixed fallback text.\n")
	}

	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
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

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
