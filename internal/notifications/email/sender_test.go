package email

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookhive/bookhive/internal/notifications"
)

func TestSender_Unconfigured(t *testing.T) {
	sender := NewSender(Config{})

	sent := sender.SendEmail(context.Background(), notifications.EmailMessage{
		To:      "jane@example.com",
		Subject: "Booking Confirmation - Glow Spa",
		HTML:    "<p>hi</p>",
	})
	assert.False(t, sent)
}

func TestSender_DefaultPort(t *testing.T) {
	sender := NewSender(Config{SMTPHost: "smtp.example.com", FromAddress: "noreply@example.com"})
	assert.Equal(t, 587, sender.config.SMTPPort)
	assert.True(t, sender.configured)
}

func TestBuildMessage(t *testing.T) {
	sender := NewSender(Config{
		SMTPHost:    "smtp.example.com",
		FromAddress: "BookHive <noreply@example.com>",
	})

	msg := sender.buildMessage(notifications.EmailMessage{
		To:      "jane@example.com",
		Subject: "Booking Confirmation - Glow Spa",
		HTML:    "<h1>Confirmed</h1><p>See you soon</p>",
	})

	body := string(msg)
	assert.Contains(t, body, "From: BookHive <noreply@example.com>\r\n")
	assert.Contains(t, body, "To: jane@example.com\r\n")
	assert.Contains(t, body, "MIME-Version: 1.0\r\n")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "text/html")
	assert.Contains(t, body, "<h1>Confirmed</h1>")

	// Text part is derived from the HTML when not supplied.
	assert.Contains(t, body, "Confirmed See you soon")
}

func TestBuildMessage_ExplicitText(t *testing.T) {
	sender := NewSender(Config{SMTPHost: "smtp.example.com", FromAddress: "noreply@example.com"})

	msg := sender.buildMessage(notifications.EmailMessage{
		To:      "jane@example.com",
		Subject: "Hello",
		HTML:    "<p>html version</p>",
		Text:    "plain version",
	})

	assert.Contains(t, string(msg), "plain version")
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple markup",
			in:   "<h1>Title</h1>\n<p>Body text</p>",
			want: "Title\nBody text",
		},
		{
			name: "entities",
			in:   "<p>Tea &amp; Coffee &middot; 10 &lt; 20</p>",
			want: "Tea & Coffee - 10 < 20",
		},
		{
			name: "collapses whitespace",
			in:   "<div>  a   b  </div>\n\n\n<div>c</div>",
			want: "a b\nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "noreply@example.com", extractEmail("BookHive <noreply@example.com>"))
	assert.Equal(t, "noreply@example.com", extractEmail("noreply@example.com"))
	assert.Equal(t, "broken <", extractEmail("broken <"))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"temporary smtp code", errors.New("451 4.7.1 try again later"), true},
		{"permanent smtp code", errors.New("550 mailbox not found"), false},
		{"generic", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestSender_SendFailureReturnsFalse(t *testing.T) {
	// Point at a port nothing listens on; the dial fails fast and the
	// sender reports the outcome instead of erroring.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}

	sender := NewSender(Config{
		SMTPHost:    host,
		SMTPPort:    port,
		FromAddress: "noreply@example.com",
	})

	sent := sender.SendEmail(context.Background(), notifications.EmailMessage{
		To:      "jane@example.com",
		Subject: "test",
		HTML:    "<p>test</p>",
	})
	assert.False(t, sent)
}
