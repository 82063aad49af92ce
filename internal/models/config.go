package models

import "time"

// Config holds the application configuration. It is built once at
// startup and injected into each component; nothing reads the
// environment after construction.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Business BusinessConfig
	WhatsApp WhatsAppConfig
	Tracing  TracingConfig
	LogLevel string
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Port        string
	VerifyToken string
	// AsyncWebhooks switches POST /webhook/{platform} to the
	// fire-and-forget variant: acknowledge first, process detached.
	AsyncWebhooks bool
}

// DatabaseConfig holds database related configuration.
type DatabaseConfig struct {
	Path string
}

// OpenAIConfig holds the chat-completions API configuration.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// BusinessConfig carries the business persona injected into the
// reply-generation system prompt.
type BusinessConfig struct {
	Name    string
	Address string
	Phone   string
	Hours   string
}

// WhatsAppConfig selects the outbound provider and carries one
// credential set per supported backend. The selection is process-wide.
type WhatsAppConfig struct {
	Provider string
	Timeout  time.Duration
	Meta     MetaConfig
	ZAPI     ZAPIConfig
	WATI     WATIConfig
	Twilio   TwilioConfig
}

// MetaConfig holds WhatsApp Cloud API credentials.
type MetaConfig struct {
	AccessToken   string
	PhoneNumberID string
}

// ZAPIConfig holds Z-API instance credentials.
type ZAPIConfig struct {
	InstanceID string
	Token      string
	BaseURL    string
}

// WATIConfig holds WATI credentials.
type WATIConfig struct {
	APIKey  string
	BaseURL string
}

// TwilioConfig holds Twilio credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	SampleRate   float64
	UseStdout    bool
}

// ConfigError reports an invalid or missing configuration value.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
