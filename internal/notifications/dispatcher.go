package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookhive/bookhive/internal/domain"
)

// Dispatcher maps a (type, recipient) pair to the correct channel call
// sequence: customer notifications go out by email, business
// notifications walk the template channels (WhatsApp, then SMS) and
// fall back to email when none delivers.
type Dispatcher struct {
	email    EmailSender
	whatsapp TemplateSender
	sms      TemplateSender
	renderer *Renderer
	baseURL  string
}

// NewDispatcher creates a dispatcher. baseURL is the public site root
// used to build reschedule/cancel action links. sms may be nil.
func NewDispatcher(email EmailSender, whatsapp, sms TemplateSender, renderer *Renderer, baseURL string) *Dispatcher {
	return &Dispatcher{
		email:    email,
		whatsapp: whatsapp,
		sms:      sms,
		renderer: renderer,
		baseURL:  baseURL,
	}
}

// SendCustomerNotification renders and emails a customer-directed
// notification. Returns the delivery outcome.
func (d *Dispatcher) SendCustomerNotification(ctx context.Context, typ NotificationType, to string, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) bool {
	subject, body, err := d.renderer.RenderCustomerEmail(typ, d.emailData(appt, svc, biz))
	if err != nil {
		slog.Error("unknown customer notification type", "type", typ, "error", err)
		return false
	}

	return d.email.SendEmail(ctx, EmailMessage{
		To:      to,
		Subject: subject,
		HTML:    body,
	})
}

// SendBusinessNotification attempts the template channels in order and,
// only if every one reports failure, falls back to email. The template
// attempts are best-effort: nothing they do can prevent the fallback.
// emailTo and phoneTo are the delivery addresses captured on the queue
// item at enqueue time, never re-read from the business record.
func (d *Dispatcher) SendBusinessNotification(ctx context.Context, typ NotificationType, emailTo, phoneTo string, appt *domain.Appointment, svc *domain.Service, biz *domain.Business) bool {
	if d.tryTemplate(ctx, "whatsapp", d.whatsapp, typ, phoneTo, appt, svc) {
		return true
	}
	if d.sms != nil && d.tryTemplate(ctx, "sms", d.sms, typ, phoneTo, appt, svc) {
		return true
	}

	subject, body, err := d.renderer.RenderBusinessEmail(typ, d.emailData(appt, svc, biz))
	if err != nil {
		slog.Error("unknown business notification type", "type", typ, "error", err)
		return false
	}

	slog.Info("template delivery unavailable, falling back to email",
		"type", typ,
		"business_id", biz.ID,
	)

	return d.email.SendEmail(ctx, EmailMessage{
		To:      emailTo,
		Subject: subject,
		HTML:    body,
	})
}

// tryTemplate runs one template channel attempt. A panic here is
// contained so the email fallback still runs.
func (d *Dispatcher) tryTemplate(ctx context.Context, channel string, sender TemplateSender, typ NotificationType, to string, appt *domain.Appointment, svc *domain.Service) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("template send panicked", "channel", channel, "type", typ, "panic", r)
			sent = false
		}
	}()

	msg, err := BusinessTemplateMessage(typ, to, appt, svc)
	if err != nil {
		slog.Error("template mapping failed", "channel", channel, "type", typ, "error", err)
		return false
	}

	return sender.SendTemplate(ctx, msg)
}

func (d *Dispatcher) emailData(appt *domain.Appointment, svc *domain.Service, biz *domain.Business) EmailData {
	return EmailData{
		CustomerName:    appt.CustomerName,
		CustomerEmail:   appt.CustomerEmail,
		CustomerPhone:   appt.CustomerPhone,
		ServiceName:     svc.Name,
		DurationMinutes: svc.DurationMinutes,
		BusinessName:    biz.Name,
		BusinessPhone:   biz.Phone,
		BusinessAddress: biz.Address,
		Date:            formatDate(appt.Date),
		Time:            formatTimeOfDay(appt.StartTime),
		Price:           formatPrice(svc.Price, svc.Currency),
		RescheduleURL:   fmt.Sprintf("%s/appointments/%s/reschedule", d.baseURL, appt.ID),
		CancelURL:       fmt.Sprintf("%s/appointments/%s/cancel", d.baseURL, appt.ID),
	}
}
