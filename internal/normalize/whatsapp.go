package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gymconnect/internal/models"
)

// WhatsApp normalizes a WhatsApp webhook body. Shapes are tried in
// priority order: Meta Cloud API envelope, Z-API, WATI, Twilio, then a
// generic alias fallback that never fails. The boolean reports a
// delivery-status event that must be silently dropped.
func WhatsApp(payload []byte) (models.IncomingMessage, bool) {
	if msg, drop, ok := whatsAppMeta(payload); ok {
		return msg, drop
	}
	if msg, ok := whatsAppZAPI(payload); ok {
		return msg, false
	}
	if msg, ok := whatsAppWATI(payload); ok {
		return msg, false
	}
	if msg, ok := whatsAppTwilio(payload); ok {
		return msg, false
	}
	return whatsAppGeneric(payload), false
}

// whatsAppMeta matches the Cloud API envelope. An entry whose value
// carries statuses but no messages is a delivery/read notification and
// is reported as droppable.
func whatsAppMeta(payload []byte) (models.IncomingMessage, bool, bool) {
	var envelope metaEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return models.IncomingMessage{}, false, false
	}
	if len(envelope.Entry) == 0 || len(envelope.Entry[0].Changes) == 0 {
		return models.IncomingMessage{}, false, false
	}

	value := envelope.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		if len(value.Statuses) > 0 {
			return models.IncomingMessage{}, true, true
		}
		return models.IncomingMessage{}, false, false
	}

	message := value.Messages[0]
	phone := Digits(message.From)

	var userName string
	if len(value.Contacts) > 0 {
		userName = value.Contacts[0].Profile.Name
	}

	return models.IncomingMessage{
		Platform:  models.PlatformWhatsApp,
		UserID:    phone,
		UserName:  userName,
		Phone:     phone,
		Message:   message.Text.Body,
		MessageID: message.ID,
	}, false, true
}

func whatsAppZAPI(payload []byte) (models.IncomingMessage, bool) {
	var p struct {
		Phone       string `json:"phone"`
		Message     string `json:"message"`
		Name        string `json:"name"`
		ContactName string `json:"contactName"`
		MessageID   string `json:"messageId"`
		ID          string `json:"id"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.Phone == "" || p.Message == "" {
		return models.IncomingMessage{}, false
	}

	phone := Digits(p.Phone)
	userName := p.Name
	if userName == "" {
		userName = p.ContactName
	}
	messageID := p.MessageID
	if messageID == "" {
		messageID = p.ID
	}

	return models.IncomingMessage{
		Platform:  models.PlatformWhatsApp,
		UserID:    phone,
		UserName:  userName,
		Phone:     phone,
		Message:   p.Message,
		MessageID: messageID,
	}, true
}

func whatsAppWATI(payload []byte) (models.IncomingMessage, bool) {
	var p struct {
		WaID string `json:"waId"`
		Text string `json:"text"`
		Name string `json:"name"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.WaID == "" || p.Text == "" {
		return models.IncomingMessage{}, false
	}

	phone := Digits(p.WaID)

	return models.IncomingMessage{
		Platform:  models.PlatformWhatsApp,
		UserID:    phone,
		UserName:  p.Name,
		Phone:     phone,
		Message:   p.Text,
		MessageID: p.ID,
	}, true
}

func whatsAppTwilio(payload []byte) (models.IncomingMessage, bool) {
	var p struct {
		From       string `json:"From"`
		Body       string `json:"Body"`
		MessageSid string `json:"MessageSid"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.From == "" || p.Body == "" {
		return models.IncomingMessage{}, false
	}

	phone := Digits(strings.TrimPrefix(p.From, "whatsapp:"))

	return models.IncomingMessage{
		Platform:  models.PlatformWhatsApp,
		UserID:    phone,
		Phone:     phone,
		Message:   p.Body,
		MessageID: p.MessageSid,
	}, true
}

// whatsAppGeneric scans a fixed list of alias field names. It always
// yields a record; an unrecognized shape comes out with an empty
// message text, which the pipeline rejects as invalid input.
func whatsAppGeneric(payload []byte) models.IncomingMessage {
	fields := asFields(payload)

	userID := firstString(fields, "userId", "from", "phone")
	phone := firstString(fields, "phone", "from")
	if phone != "" {
		phone = Digits(phone)
		userID = phone
	}
	if userID == "" {
		// Placeholder key so test traffic without sender identity still
		// lands somewhere inspectable.
		userID = fmt.Sprintf("test_%d", time.Now().UnixMilli())
	}

	return models.IncomingMessage{
		Platform:  models.PlatformWhatsApp,
		UserID:    userID,
		UserName:  firstString(fields, "userName", "name"),
		Phone:     phone,
		Message:   firstString(fields, "message", "text", "body"),
		MessageID: firstString(fields, "messageId", "id"),
	}
}
