package normalize

import "encoding/json"

// metaEnvelope covers the Meta graph webhook structure shared by the
// WhatsApp Cloud API and Instagram: entries carrying either "changes"
// (Cloud API) or "messaging" (Instagram direct) events.
type metaEnvelope struct {
	Object string      `json:"object"`
	Entry  []metaEntry `json:"entry"`
}

type metaEntry struct {
	ID        string          `json:"id"`
	Changes   []metaChange    `json:"changes"`
	Messaging []metaMessaging `json:"messaging"`
}

type metaChange struct {
	Field string          `json:"field"`
	Value metaChangeValue `json:"value"`
}

type metaChangeValue struct {
	Messages []metaMessage     `json:"messages"`
	Statuses []json.RawMessage `json:"statuses"`
	Contacts []metaContact     `json:"contacts"`
}

type metaMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type metaContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type metaMessaging struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message struct {
		MID  string `json:"mid"`
		Text string `json:"text"`
	} `json:"message"`
}
