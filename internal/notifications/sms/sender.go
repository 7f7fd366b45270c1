// Package sms is a placeholder for a future SMS delivery channel. The
// channel exists in business notification preferences but no provider
// is integrated yet, so every send reports not delivered.
package sms

import (
	"context"
	"log/slog"

	"github.com/bookhive/bookhive/internal/notifications"
)

// Sender satisfies notifications.TemplateSender without delivering
// anything. Keeping the channel wired means preferences and dispatch
// code stay ready for a real provider.
type Sender struct{}

func NewSender() *Sender {
	slog.Info("sms channel registered without a provider, sms notifications will not be sent")
	return &Sender{}
}

func (s *Sender) SendTemplate(_ context.Context, msg notifications.TemplateMessage) bool {
	slog.Debug("sms provider not integrated, skipping send", "template", msg.Template)
	return false
}
