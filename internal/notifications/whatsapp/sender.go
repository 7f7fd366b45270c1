// Package whatsapp delivers template notifications through the
// WhatsApp Business Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookhive/bookhive/internal/notifications"
)

const defaultAPIURL = "https://graph.facebook.com/v21.0"

// Config holds WhatsApp Cloud API settings. Enabled acts as a kill
// switch independent of credentials being present.
type Config struct {
	Enabled       bool
	APIURL        string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
	RateLimit     float64
}

// Sender implements notifications.TemplateSender against the Cloud API.
type Sender struct {
	config     Config
	client     *http.Client
	limiter    *rate.Limiter
	configured bool
}

// NewSender creates a WhatsApp sender. A disabled or unconfigured
// sender reports every send as not delivered, which lets the dispatcher
// fall back to email.
func NewSender(config Config) *Sender {
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}

	configured := config.Enabled && config.PhoneNumberID != "" && config.AccessToken != ""
	if !configured {
		slog.Warn("whatsapp sender not configured, template messages will not be sent")
	} else {
		slog.Info("whatsapp sender configured", "phone_number_id", config.PhoneNumberID)
	}

	return &Sender{
		config:     config,
		client:     &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		configured: configured,
	}
}

type templateRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	RecipientType    string          `json:"recipient_type"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Template         templatePayload `json:"template"`
}

type templatePayload struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components,omitempty"`
}

type language struct {
	Code string `json:"code"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTemplate delivers one template message, reporting the outcome as
// a boolean. API and transport errors are logged here and never
// propagate.
func (s *Sender) SendTemplate(ctx context.Context, msg notifications.TemplateMessage) bool {
	if !s.configured {
		slog.Debug("whatsapp sender disabled, skipping send", "template", msg.Template)
		return false
	}

	to := NormalizePhone(msg.To)
	if to == "" {
		slog.Warn("whatsapp recipient has no usable phone number", "template", msg.Template)
		return false
	}

	if err := s.limiter.Wait(ctx); err != nil {
		slog.Error("whatsapp rate limiter interrupted", "error", err)
		return false
	}

	if err := s.send(ctx, to, msg); err != nil {
		slog.Error("failed to send whatsapp template",
			"template", msg.Template,
			"error", err,
		)
		return false
	}

	slog.Debug("whatsapp template sent", "template", msg.Template)
	return true
}

func (s *Sender) send(ctx context.Context, to string, msg notifications.TemplateMessage) error {
	req := templateRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template: templatePayload{
			Name:     msg.Template,
			Language: language{Code: "en_US"},
		},
	}

	if len(msg.Parameters) > 0 {
		params := make([]parameter, 0, len(msg.Parameters))
		for _, p := range msg.Parameters {
			params = append(params, parameter{Type: "text", Text: p})
		}
		req.Template.Components = []component{{Type: "body", Parameters: params}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(s.config.APIURL, "/"), s.config.PhoneNumberID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.config.AccessToken)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post template message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}

// NormalizePhone strips formatting characters and prefixes a US country
// code onto bare ten-digit numbers. Returns "" when no digits remain.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		return "1" + digits
	}
	return digits
}
