// Package normalize maps heterogeneous platform webhook payloads into
// the canonical IncomingMessage record. Each platform has an ordered
// list of shape matchers tried in priority order; the first structural
// match wins. A total mismatch degrades to a best-effort record with an
// empty message text instead of failing, and the pipeline rejects it
// downstream.
package normalize

import (
	"encoding/json"
	"strings"

	"gymconnect/internal/models"
)

// Normalize dispatches to the platform-specific matcher chain. The
// boolean reports that the event carries no message content (a pure
// delivery-status notification) and must be dropped without producing
// a record.
func Normalize(platform models.Platform, payload []byte) (models.IncomingMessage, bool) {
	if platform == models.PlatformInstagram {
		return Instagram(payload)
	}
	return WhatsApp(payload)
}

// Digits strips every non-digit character from a phone number. It is
// applied at every boundary (inbound identification and outbound send
// target) so the conversation key and the delivery target can never
// disagree on format.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// asFields decodes a payload into a generic field map for the alias
// fallback matchers. Returns nil on malformed JSON.
func asFields(payload []byte) map[string]interface{} {
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil
	}
	return fields
}

// firstString returns the first key whose value is a non-empty string.
func firstString(fields map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
