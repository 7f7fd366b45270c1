package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// EmailData is the rendering context for notification emails.
type EmailData struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	ServiceName     string
	DurationMinutes int

	BusinessName    string
	BusinessPhone   string
	BusinessAddress string

	Date  string
	Time  string
	Price string

	// ReminderWindow is the human-readable lead time ("24 hours") for
	// reminder emails; empty for other types.
	ReminderWindow string

	RescheduleURL string
	CancelURL     string
}

// Renderer renders notification emails from embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

// Template file names (without extension).
var templateNames = []string{
	"customer_confirmation",
	"customer_reminder",
	"customer_cancellation",
	"customer_rescheduled",
	"business_fallback",
}

// NewRenderer creates a renderer and parses all templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, name := range templateNames {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// RenderCustomerEmail renders the type-specific email for a
// customer-directed notification. Returns subject and HTML body.
func (r *Renderer) RenderCustomerEmail(typ NotificationType, data EmailData) (subject, body string, err error) {
	var name string

	switch typ {
	case TypeBookingConfirmation:
		name = "customer_confirmation"
		subject = fmt.Sprintf("Booking Confirmation - %s", data.BusinessName)
	case TypeBookingReminder24h, TypeBookingReminder2h, TypeBookingReminder30m:
		name = "customer_reminder"
		subject = fmt.Sprintf("Appointment Reminder - %s", data.BusinessName)
		data.ReminderWindow = reminderWindow(typ)
	case TypeBookingCancellation:
		name = "customer_cancellation"
		subject = fmt.Sprintf("Booking Cancelled - %s", data.BusinessName)
	case TypeBookingRescheduled:
		name = "customer_rescheduled"
		subject = fmt.Sprintf("Booking Rescheduled - %s", data.BusinessName)
	default:
		return "", "", fmt.Errorf("no customer email template for notification type %q", typ)
	}

	body, err = r.execute(name, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// RenderBusinessEmail renders the generic business email used as the
// WhatsApp fallback for business-directed notifications.
func (r *Renderer) RenderBusinessEmail(typ NotificationType, data EmailData) (subject, body string, err error) {
	switch typ {
	case TypeBusinessNewBooking, TypeBusinessBookingCancelled,
		TypeBusinessBookingReminder, TypeBusinessBookingRescheduled:
	default:
		return "", "", fmt.Errorf("no business email template for notification type %q", typ)
	}

	subject = fmt.Sprintf("%s - %s", humanizeType(typ), data.CustomerName)

	body, err = r.execute("business_fallback", data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func (r *Renderer) execute(name string, data EmailData) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// reminderWindow returns the human-readable lead time for a reminder type.
func reminderWindow(typ NotificationType) string {
	switch typ {
	case TypeBookingReminder24h:
		return "24 hours"
	case TypeBookingReminder2h:
		return "2 hours"
	case TypeBookingReminder30m:
		return "30 minutes"
	}
	return ""
}

var titleCaser = cases.Title(language.English)

// humanizeType turns business_new_booking into "New Booking".
func humanizeType(typ NotificationType) string {
	s := strings.TrimPrefix(string(typ), "business_")
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// Formatting helpers shared by the renderer and the WhatsApp template
// contract. Dates and times are presented in the appointment's own
// calendar terms; timezone conversion happens upstream.

func formatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// formatTimeOfDay converts a "15:04" wall-clock string to "3:04 PM".
// Unparseable input is passed through unchanged.
func formatTimeOfDay(s string) string {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return s
	}
	return t.Format("3:04 PM")
}

func formatPrice(price float64, currency string) string {
	switch currency {
	case "", "USD":
		return fmt.Sprintf("$%.2f", price)
	case "EUR":
		return fmt.Sprintf("€%.2f", price)
	case "GBP":
		return fmt.Sprintf("£%.2f", price)
	default:
		return fmt.Sprintf("%.2f %s", price, currency)
	}
}
