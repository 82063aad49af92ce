package models

import "time"

// Platform identifies the messaging platform a webhook arrived from.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
)

// Valid reports whether p names a supported platform.
func (p Platform) Valid() bool {
	return p == PlatformWhatsApp || p == PlatformInstagram
}

// IncomingMessage is the canonical record produced from a platform
// webhook payload. It lives only for the duration of one request.
type IncomingMessage struct {
	Platform  Platform
	UserID    string
	UserName  string
	Phone     string // digits only, WhatsApp only
	Message   string
	MessageID string
}

// Lead is a persisted (platform, user_id) contact.
type Lead struct {
	ID        int64
	Platform  Platform
	UserID    string
	UserName  *string
	Phone     *string
	Status    string
	Notes     *string
	CreatedAt time.Time
}

// ConversationTurn is one persisted inbound-message/outbound-reply pair.
// Rows are append-only and immutable after insert.
type ConversationTurn struct {
	ID                 int64
	Platform           Platform
	UserID             string
	MessageText        string
	ResponseText       string
	TransferredToHuman bool
	CreatedAt          time.Time
}

// Reply is the outcome of reply generation. Fallback marks a canned
// response produced after an upstream API failure; the text is still
// delivered to the user.
type Reply struct {
	Text               string
	TransferredToHuman bool
	Fallback           bool
}
