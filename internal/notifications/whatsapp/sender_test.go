package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhive/bookhive/internal/notifications"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 123-4567", "15551234567"},
		{"5551234567", "15551234567"},
		{"15551234567", "15551234567"},
		{"+44 20 7946 0958", "442079460958"},
		{"555-0100", "5550100"},
		{"", ""},
		{"n/a", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestSender_Disabled(t *testing.T) {
	sender := NewSender(Config{Enabled: false, PhoneNumberID: "123", AccessToken: "token"})

	sent := sender.SendTemplate(context.Background(), notifications.TemplateMessage{
		To:       "+15551234567",
		Template: "new_booking_notification",
	})
	assert.False(t, sent)
}

func TestSender_MissingCredentials(t *testing.T) {
	sender := NewSender(Config{Enabled: true})

	sent := sender.SendTemplate(context.Background(), notifications.TemplateMessage{
		To:       "+15551234567",
		Template: "new_booking_notification",
	})
	assert.False(t, sent)
}

func TestSender_SendTemplate(t *testing.T) {
	var captured templateRequest
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/555000/messages", r.URL.Path)
		authHeader = r.Header.Get("Authorization")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.test"}]}`))
	}))
	defer server.Close()

	sender := NewSender(Config{
		Enabled:       true,
		APIURL:        server.URL,
		PhoneNumberID: "555000",
		AccessToken:   "secret-token",
	})

	sent := sender.SendTemplate(context.Background(), notifications.TemplateMessage{
		To:         "+1 (555) 123-4567",
		Template:   "new_booking_notification",
		Parameters: []string{"Jane Porter", "Deep Tissue Massage"},
	})
	require.True(t, sent)

	assert.Equal(t, "Bearer secret-token", authHeader)
	assert.Equal(t, "whatsapp", captured.MessagingProduct)
	assert.Equal(t, "individual", captured.RecipientType)
	assert.Equal(t, "15551234567", captured.To)
	assert.Equal(t, "template", captured.Type)
	assert.Equal(t, "new_booking_notification", captured.Template.Name)
	assert.Equal(t, "en_US", captured.Template.Language.Code)

	require.Len(t, captured.Template.Components, 1)
	component := captured.Template.Components[0]
	assert.Equal(t, "body", component.Type)
	require.Len(t, component.Parameters, 2)
	assert.Equal(t, parameter{Type: "text", Text: "Jane Porter"}, component.Parameters[0])
	assert.Equal(t, parameter{Type: "text", Text: "Deep Tissue Massage"}, component.Parameters[1])
}

func TestSender_NoParameters(t *testing.T) {
	var captured templateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(Config{
		Enabled:       true,
		APIURL:        server.URL,
		PhoneNumberID: "555000",
		AccessToken:   "token",
	})

	sent := sender.SendTemplate(context.Background(), notifications.TemplateMessage{
		To:       "15551234567",
		Template: "booking_reminder_notification",
	})
	require.True(t, sent)
	assert.Empty(t, captured.Template.Components)
}

func TestSender_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"template not found"}}`))
	}))
	defer server.Close()

	sender := NewSender(Config{
		Enabled:       true,
		APIURL:        server.URL,
		PhoneNumberID: "555000",
		AccessToken:   "token",
	})

	sent := sender.SendTemplate(context.Background(), notifications.TemplateMessage{
		To:       "15551234567",
		Template: "ghost_template",
	})
	assert.False(t, sent)
}

func TestSender_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(Config{
		Enabled:       true,
		APIURL:        server.URL,
		PhoneNumberID: "555000",
		AccessToken:   "token",
		Timeout:       50 * time.Millisecond,
	})

	sent := sender.SendTemplate(context.Background(), notifications.TemplateMessage{
		To:       "15551234567",
		Template: "new_booking_notification",
	})
	assert.False(t, sent)
}

func TestSender_EmptyPhone(t *testing.T) {
	sender := NewSender(Config{
		Enabled:       true,
		APIURL:        "http://unused.invalid",
		PhoneNumberID: "555000",
		AccessToken:   "token",
	})

	sent := sender.SendTemplate(context.Background(), notifications.TemplateMessage{
		To:       "---",
		Template: "new_booking_notification",
	})
	assert.False(t, sent)
}
