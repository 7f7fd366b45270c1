package domain

import "time"

// Business represents a service provider that accepts bookings.
type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationPreferences holds per-business opt-in flags for immediate
// and reminder notifications, per channel.
type NotificationPreferences struct {
	BusinessID       string    `json:"business_id"`
	Email            bool      `json:"email"`
	WhatsApp         bool      `json:"whatsapp"`
	SMS              bool      `json:"sms"`
	ReminderEmail    bool      `json:"reminder_email"`
	ReminderWhatsApp bool      `json:"reminder_whatsapp"`
	ReminderSMS      bool      `json:"reminder_sms"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultNotificationPreferences returns the preferences applied when a
// business has no explicit row: email and whatsapp on, sms off.
func DefaultNotificationPreferences(businessID string) *NotificationPreferences {
	return &NotificationPreferences{
		BusinessID:       businessID,
		Email:            true,
		WhatsApp:         true,
		SMS:              false,
		ReminderEmail:    true,
		ReminderWhatsApp: true,
		ReminderSMS:      false,
	}
}

// WantsImmediate reports whether any immediate channel is enabled.
func (p *NotificationPreferences) WantsImmediate() bool {
	return p.Email || p.WhatsApp
}

// WantsReminders reports whether any reminder channel is enabled.
func (p *NotificationPreferences) WantsReminders() bool {
	return p.ReminderEmail || p.ReminderWhatsApp
}
