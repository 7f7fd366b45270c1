// Package email provides email notification delivery via SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"regexp"
	"strings"
	"time"

	"github.com/bookhive/bookhive/internal/notifications"
)

// Config holds email sender configuration. A sender with missing
// host/port/from configuration is considered unconfigured and reports
// every send as not delivered instead of failing at startup.
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
}

// Sender implements notifications.EmailSender over SMTP with STARTTLS.
type Sender struct {
	config     Config
	auth       smtp.Auth
	configured bool
}

// NewSender creates an email sender. Missing configuration disables
// sending rather than erroring: the pipeline degrades to "notification
// not sent" instead of refusing to start.
func NewSender(config Config) *Sender {
	if config.SMTPPort == 0 {
		config.SMTPPort = 587
	}

	configured := config.SMTPHost != "" && config.FromAddress != ""

	var auth smtp.Auth
	if config.SMTPUser != "" && config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", config.SMTPUser, config.SMTPPassword, config.SMTPHost)
	}

	if !configured {
		slog.Warn("email sender not configured, emails will not be sent")
	} else {
		slog.Info("email sender configured",
			"smtp_host", config.SMTPHost,
			"smtp_port", config.SMTPPort,
			"from_address", config.FromAddress,
		)
	}

	return &Sender{
		config:     config,
		auth:       auth,
		configured: configured,
	}
}

// SendEmail delivers one message, reporting the outcome as a boolean.
// Transport errors are logged here and never propagate.
func (s *Sender) SendEmail(ctx context.Context, msg notifications.EmailMessage) bool {
	if !s.configured {
		slog.Warn("email sender not configured, skipping send", "subject", msg.Subject)
		return false
	}

	if err := s.send(ctx, msg); err != nil {
		slog.Error("failed to send email",
			"subject", msg.Subject,
			"error", err,
		)
		return false
	}

	slog.Debug("email sent", "subject", msg.Subject)
	return true
}

func (s *Sender) send(ctx context.Context, msg notifications.EmailMessage) error {
	body := s.buildMessage(msg)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	tlsConfig := &tls.Config{
		ServerName: s.config.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	from := extractEmail(s.config.FromAddress)
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

const altBoundary = "bookhive-alt"

// buildMessage constructs a multipart/alternative message with plain
// text and HTML parts. The text part defaults to the HTML with tags
// stripped when not supplied.
func (s *Sender) buildMessage(msg notifications.EmailMessage) []byte {
	text := msg.Text
	if text == "" {
		text = StripTags(msg.HTML)
	}

	var b strings.Builder

	// Headers in deterministic order
	b.WriteString(fmt.Sprintf("From: %s\r\n", s.config.FromAddress))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", altBoundary))
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	return []byte(b.String())
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)
)

// StripTags produces a plain-text rendition of an HTML body.
func StripTags(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&middot;", "-")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = whitespacePattern.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractEmail extracts the address from formats like "Name <a@b.com>".
func extractEmail(address string) string {
	if idx := strings.Index(address, "<"); idx != -1 {
		end := strings.Index(address, ">")
		if end > idx {
			return address[idx+1 : end]
		}
	}
	return address
}

// IsRetryable reports whether an SMTP error is worth retrying. Exposed
// for callers that track failure causes.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errStr := err.Error()

	// SMTP 4xx codes are temporary failures
	for _, code := range []string{"421", "450", "451", "452"} {
		if strings.Contains(errStr, code) {
			return true
		}
	}

	return false
}
