package notifications

import "context"

// EmailMessage is a rendered email ready for transport.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string // optional, derived from HTML by the sender when empty
}

// TemplateMessage is a provider-template message for template-based
// channels such as the WhatsApp Business API. Parameters are positional;
// their order per template is a fixed contract with the provider.
type TemplateMessage struct {
	To         string
	Template   string
	Parameters []string
}

// EmailSender delivers rendered emails. Transport failures never cross
// this boundary as errors: the boolean is the delivery outcome, and an
// unconfigured transport reports false.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) bool
}

// TemplateSender delivers provider-template messages under the same
// boolean-outcome contract as EmailSender.
type TemplateSender interface {
	SendTemplate(ctx context.Context, msg TemplateMessage) bool
}
