package constants

const (
	// DefaultPort is the HTTP listen port when PORT is unset.
	DefaultPort = "3000"

	// HistoryWindow bounds how many prior conversation turns are
	// replayed as context for reply generation.
	HistoryWindow = 5

	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAITimeoutSec = 30
	DefaultMaxTokens        = 150
	DefaultTemperature      = 0.7

	DefaultSendTimeoutSec = 15
	DefaultZAPIBaseURL    = "https://api.z-api.io"
	DefaultWATIBaseURL    = "https://api.wati.io"

	// MaxWebhookBodyBytes caps inbound webhook body reads.
	MaxWebhookBodyBytes = 1 << 20

	// DetachedProcessTimeoutSec bounds a fire-and-forget pipeline run
	// after the webhook has already been acknowledged.
	DetachedProcessTimeoutSec = 60

	DefaultGracefulShutdownSec = 10

	ServerErrorChannelSize = 1
)
