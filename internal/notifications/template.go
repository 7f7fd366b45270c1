package notifications

import (
	"fmt"

	"github.com/bookhive/bookhive/internal/domain"
)

// WhatsApp Business API template names. Each business notification type
// maps to a provider-side template; the names and the positional
// parameter order below are a fixed contract with the messaging provider.
const (
	templateNewBooking         = "new_booking_notification"
	templateBookingCancelled   = "booking_cancelled_notification"
	templateBookingReminder    = "booking_reminder_notification"
	templateBookingRescheduled = "booking_rescheduled_notification"
)

// BusinessTemplateMessage builds the WhatsApp template message for a
// business-directed notification type. to is the recipient phone
// captured on the queue item at enqueue time; contact changes after
// booking never redirect queued messages.
func BusinessTemplateMessage(typ NotificationType, to string, appt *domain.Appointment, svc *domain.Service) (TemplateMessage, error) {
	date := formatDate(appt.Date)
	timeOfDay := formatTimeOfDay(appt.StartTime)

	switch typ {
	case TypeBusinessNewBooking:
		return TemplateMessage{
			To:       to,
			Template: templateNewBooking,
			Parameters: []string{
				appt.CustomerName,
				svc.Name,
				date,
				timeOfDay,
				formatPrice(svc.Price, svc.Currency),
				appt.CustomerPhone,
				appt.CustomerEmail,
			},
		}, nil
	case TypeBusinessBookingCancelled:
		return TemplateMessage{
			To:         to,
			Template:   templateBookingCancelled,
			Parameters: []string{appt.CustomerName, svc.Name, date, timeOfDay},
		}, nil
	case TypeBusinessBookingReminder:
		return TemplateMessage{
			To:         to,
			Template:   templateBookingReminder,
			Parameters: []string{appt.CustomerName, svc.Name, date, timeOfDay},
		}, nil
	case TypeBusinessBookingRescheduled:
		return TemplateMessage{
			To:         to,
			Template:   templateBookingRescheduled,
			Parameters: []string{appt.CustomerName, svc.Name, date, timeOfDay},
		}, nil
	default:
		return TemplateMessage{}, fmt.Errorf("no whatsapp template for notification type %q", typ)
	}
}
