// Package whatsapp sends outbound text messages through one of the
// supported WhatsApp provider APIs: the Meta Cloud API or the Z-API,
// WATI and Twilio relay providers. All backends are normalized to the
// same SendText signature.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Config selects the provider backend and carries one credential set
// per backend. The selection is process-wide, not per message.
type Config struct {
	Provider string
	Timeout  time.Duration
	Meta     MetaConfig
	ZAPI     ZAPIConfig
	WATI     WATIConfig
	Twilio   TwilioConfig
}

type MetaConfig struct {
	AccessToken   string
	PhoneNumberID string
}

type ZAPIConfig struct {
	InstanceID string
	Token      string
	BaseURL    string
}

type WATIConfig struct {
	APIKey  string
	BaseURL string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

type ProviderSender struct {
	cfg    Config
	client *http.Client
}

func NewSender(cfg Config) Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &ProviderSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// SendText dispatches to the configured provider. An unknown provider
// is a configuration error raised here, at send time.
func (s *ProviderSender) SendText(ctx context.Context, phone, text string) error {
	phone = digits(phone)
	if phone == "" {
		return fmt.Errorf("send target has no digits")
	}

	switch strings.ToLower(s.cfg.Provider) {
	case "meta", "whatsapp":
		return s.sendViaMeta(ctx, phone, text)
	case "zapi":
		return s.sendViaZAPI(ctx, phone, text)
	case "wati":
		return s.sendViaWATI(ctx, phone, text)
	case "twilio":
		return s.sendViaTwilio(ctx, phone, text)
	default:
		return fmt.Errorf("unsupported WhatsApp provider: %q", s.cfg.Provider)
	}
}

func (s *ProviderSender) sendViaMeta(ctx context.Context, phone, text string) error {
	if s.cfg.Meta.AccessToken == "" || s.cfg.Meta.PhoneNumberID == "" {
		return fmt.Errorf("meta access token and phone number id are required")
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                phone,
		"type":              "text",
		"text": map[string]interface{}{
			"preview_url": false,
			"body":        text,
		},
	}

	endpoint := fmt.Sprintf("https://graph.facebook.com/v18.0/%s/messages", s.cfg.Meta.PhoneNumberID)
	return s.postJSON(ctx, endpoint, payload, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Meta.AccessToken)
	})
}

func (s *ProviderSender) sendViaZAPI(ctx context.Context, phone, text string) error {
	payload := map[string]interface{}{
		"phone":   phone,
		"message": text,
	}

	endpoint := fmt.Sprintf("%s/instances/%s/token/%s/send-text",
		s.cfg.ZAPI.BaseURL, s.cfg.ZAPI.InstanceID, s.cfg.ZAPI.Token)
	return s.postJSON(ctx, endpoint, payload, nil)
}

func (s *ProviderSender) sendViaWATI(ctx context.Context, phone, text string) error {
	payload := map[string]interface{}{
		"text": text,
	}

	endpoint := fmt.Sprintf("%s/v1/sendSessionMessage/%s", s.cfg.WATI.BaseURL, phone)
	return s.postJSON(ctx, endpoint, payload, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+s.cfg.WATI.APIKey)
	})
}

func (s *ProviderSender) sendViaTwilio(ctx context.Context, phone, text string) error {
	form := url.Values{}
	form.Set("From", s.cfg.Twilio.FromNumber)
	form.Set("To", phone)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.cfg.Twilio.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.cfg.Twilio.AccountSID, s.cfg.Twilio.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.do(req)
}

func (s *ProviderSender) postJSON(ctx context.Context, endpoint string, payload interface{}, decorate func(*http.Request)) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}

	return s.do(req)
}

func (s *ProviderSender) do(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
