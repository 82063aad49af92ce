package normalize

import (
	"encoding/json"

	"gymconnect/internal/models"
)

// Instagram normalizes an Instagram webhook body. Shapes in priority
// order: Meta messaging event, Meta changes event, ManyChat subscriber
// envelope, then flat alias fallbacks. Instagram never carries a phone
// number. The boolean reports a status-only event to drop.
func Instagram(payload []byte) (models.IncomingMessage, bool) {
	if msg, drop, ok := instagramMeta(payload); ok {
		return msg, drop
	}
	if msg, ok := instagramManyChat(payload); ok {
		return msg, false
	}
	return instagramGeneric(payload), false
}

// instagramMeta matches both Meta event flavors: direct messaging
// entries (entry[0].messaging[0]) and Cloud-API style changes entries
// (entry[0].changes[0].value.messages[0]).
func instagramMeta(payload []byte) (models.IncomingMessage, bool, bool) {
	var envelope metaEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.Entry) == 0 {
		return models.IncomingMessage{}, false, false
	}
	entry := envelope.Entry[0]

	if len(entry.Messaging) > 0 {
		event := entry.Messaging[0]
		if event.Sender.ID == "" {
			return models.IncomingMessage{}, false, false
		}
		return models.IncomingMessage{
			Platform:  models.PlatformInstagram,
			UserID:    event.Sender.ID,
			Message:   event.Message.Text,
			MessageID: event.Message.MID,
		}, false, true
	}

	if len(entry.Changes) > 0 {
		value := entry.Changes[0].Value
		if len(value.Messages) == 0 {
			if len(value.Statuses) > 0 {
				return models.IncomingMessage{}, true, true
			}
			return models.IncomingMessage{}, false, false
		}
		message := value.Messages[0]
		return models.IncomingMessage{
			Platform:  models.PlatformInstagram,
			UserID:    message.From,
			Message:   message.Text.Body,
			MessageID: message.ID,
		}, false, true
	}

	return models.IncomingMessage{}, false, false
}

// instagramManyChat matches the legacy subscriber/message envelope. The
// message field is either an object with a text property or a bare
// string.
func instagramManyChat(payload []byte) (models.IncomingMessage, bool) {
	var p struct {
		ID         string `json:"id"`
		Subscriber *struct {
			ID        string `json:"id"`
			UserID    string `json:"user_id"`
			FirstName string `json:"first_name"`
			Name      string `json:"name"`
		} `json:"subscriber"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.Subscriber == nil || len(p.Message) == 0 {
		return models.IncomingMessage{}, false
	}

	userID := p.Subscriber.ID
	if userID == "" {
		userID = p.Subscriber.UserID
	}
	if userID == "" {
		userID = "unknown"
	}
	userName := p.Subscriber.FirstName
	if userName == "" {
		userName = p.Subscriber.Name
	}

	var text, messageID string
	var object struct {
		Text string `json:"text"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(p.Message, &object); err == nil {
		text = object.Text
		messageID = object.ID
	} else {
		_ = json.Unmarshal(p.Message, &text)
	}
	if messageID == "" {
		messageID = p.ID
	}

	return models.IncomingMessage{
		Platform:  models.PlatformInstagram,
		UserID:    userID,
		UserName:  userName,
		Message:   text,
		MessageID: messageID,
	}, true
}

// instagramGeneric is the flat alias fallback; mirrors the WhatsApp one
// in spirit, with "unknown" as the identity placeholder.
func instagramGeneric(payload []byte) models.IncomingMessage {
	fields := asFields(payload)

	userID := firstString(fields, "userId", "user_id", "from", "sender_id")
	if userID == "" {
		userID = "unknown"
	}

	return models.IncomingMessage{
		Platform:  models.PlatformInstagram,
		UserID:    userID,
		UserName:  firstString(fields, "userName", "first_name", "name"),
		Message:   firstString(fields, "message", "text", "body"),
		MessageID: firstString(fields, "messageId", "message_id", "id"),
	}
}
