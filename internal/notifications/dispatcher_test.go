package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmailSender records SendEmail calls and returns a fixed outcome.
type mockEmailSender struct {
	result bool
	calls  []EmailMessage
}

func (m *mockEmailSender) SendEmail(_ context.Context, msg EmailMessage) bool {
	m.calls = append(m.calls, msg)
	return m.result
}

// mockTemplateSender records SendTemplate calls and returns a fixed outcome.
type mockTemplateSender struct {
	result bool
	panics bool
	calls  []TemplateMessage
}

func (m *mockTemplateSender) SendTemplate(_ context.Context, msg TemplateMessage) bool {
	m.calls = append(m.calls, msg)
	if m.panics {
		panic("sender exploded")
	}
	return m.result
}

func newTestDispatcher(t *testing.T, email *mockEmailSender, whatsapp *mockTemplateSender) *Dispatcher {
	t.Helper()

	renderer, err := NewRenderer()
	require.NoError(t, err)
	return NewDispatcher(email, whatsapp, nil, renderer, "https://book.example.com")
}

func TestDispatcher_SendCustomerNotification(t *testing.T) {
	email := &mockEmailSender{result: true}
	whatsapp := &mockTemplateSender{result: true}
	d := newTestDispatcher(t, email, whatsapp)

	appt, svc, biz := testFixtures(time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC))

	sent := d.SendCustomerNotification(context.Background(), TypeBookingConfirmation, "jane@example.com", appt, svc, biz)
	assert.True(t, sent)

	// Customer notifications never touch the template channels.
	assert.Empty(t, whatsapp.calls)

	require.Len(t, email.calls, 1)
	msg := email.calls[0]
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Booking Confirmation - Glow Spa", msg.Subject)
	assert.Contains(t, msg.HTML, "Deep Tissue Massage")
	assert.Contains(t, msg.HTML, "Monday, September 14, 2026")
	assert.Contains(t, msg.HTML, "10:30 AM")
	assert.Contains(t, msg.HTML, "$80.00")
	assert.Contains(t, msg.HTML, "https://book.example.com/appointments/appt-1/reschedule")
	assert.Contains(t, msg.HTML, "https://book.example.com/appointments/appt-1/cancel")
}

func TestDispatcher_SendCustomerNotification_UnknownType(t *testing.T) {
	email := &mockEmailSender{result: true}
	d := newTestDispatcher(t, email, &mockTemplateSender{result: true})

	appt, svc, biz := testFixtures(time.Now().Add(24 * time.Hour))

	sent := d.SendCustomerNotification(context.Background(), TypeBusinessNewBooking, "jane@example.com", appt, svc, biz)
	assert.False(t, sent)
	assert.Empty(t, email.calls)
}

func TestDispatcher_SendBusinessNotification_WhatsAppSucceeds(t *testing.T) {
	email := &mockEmailSender{result: true}
	whatsapp := &mockTemplateSender{result: true}
	d := newTestDispatcher(t, email, whatsapp)

	appt, svc, biz := testFixtures(time.Now().Add(24 * time.Hour))

	sent := d.SendBusinessNotification(context.Background(), TypeBusinessNewBooking, "owner@glowspa.com", biz.Phone, appt, svc, biz)
	assert.True(t, sent)

	require.Len(t, whatsapp.calls, 1)
	assert.Equal(t, "new_booking_notification", whatsapp.calls[0].Template)

	// No fallback when the primary channel delivers.
	assert.Empty(t, email.calls)
}

func TestDispatcher_SendBusinessNotification_UsesCapturedPhone(t *testing.T) {
	email := &mockEmailSender{result: true}
	whatsapp := &mockTemplateSender{result: true}
	d := newTestDispatcher(t, email, whatsapp)

	appt, svc, biz := testFixtures(time.Now().Add(24 * time.Hour))

	// The business record carries a newer phone than the one captured
	// at enqueue time; the message goes to the captured address.
	biz.Phone = "+1 555 999 2222"

	sent := d.SendBusinessNotification(context.Background(), TypeBusinessNewBooking, "owner@glowspa.com", "+1 555 000 1111", appt, svc, biz)
	assert.True(t, sent)

	require.Len(t, whatsapp.calls, 1)
	assert.Equal(t, "+1 555 000 1111", whatsapp.calls[0].To)
}

func TestDispatcher_SendBusinessNotification_FallsBackToEmail(t *testing.T) {
	email := &mockEmailSender{result: true}
	whatsapp := &mockTemplateSender{result: false}
	d := newTestDispatcher(t, email, whatsapp)

	appt, svc, biz := testFixtures(time.Now().Add(24 * time.Hour))

	sent := d.SendBusinessNotification(context.Background(), TypeBusinessBookingCancelled, "owner@glowspa.com", biz.Phone, appt, svc, biz)
	assert.True(t, sent)

	require.Len(t, whatsapp.calls, 1)
	require.Len(t, email.calls, 1)
	assert.Equal(t, "owner@glowspa.com", email.calls[0].To)
	assert.Equal(t, "Booking Cancelled - Jane Porter", email.calls[0].Subject)
	assert.Contains(t, email.calls[0].HTML, "jane@example.com")
}

func TestDispatcher_SendBusinessNotification_BothChannelsFail(t *testing.T) {
	email := &mockEmailSender{result: false}
	whatsapp := &mockTemplateSender{result: false}
	d := newTestDispatcher(t, email, whatsapp)

	appt, svc, biz := testFixtures(time.Now().Add(24 * time.Hour))

	sent := d.SendBusinessNotification(context.Background(), TypeBusinessNewBooking, "owner@glowspa.com", biz.Phone, appt, svc, biz)
	assert.False(t, sent)
	assert.Len(t, whatsapp.calls, 1)
	assert.Len(t, email.calls, 1)
}

func TestDispatcher_SendBusinessNotification_WhatsAppPanicStillFallsBack(t *testing.T) {
	email := &mockEmailSender{result: true}
	whatsapp := &mockTemplateSender{panics: true}
	d := newTestDispatcher(t, email, whatsapp)

	appt, svc, biz := testFixtures(time.Now().Add(24 * time.Hour))

	sent := d.SendBusinessNotification(context.Background(), TypeBusinessNewBooking, "owner@glowspa.com", biz.Phone, appt, svc, biz)
	assert.True(t, sent)
	assert.Len(t, email.calls, 1)
}

func TestDispatcher_SendBusinessNotification_SMSChainTried(t *testing.T) {
	email := &mockEmailSender{result: true}
	whatsapp := &mockTemplateSender{result: false}
	sms := &mockTemplateSender{result: false}

	renderer, err := NewRenderer()
	require.NoError(t, err)
	d := NewDispatcher(email, whatsapp, sms, renderer, "https://book.example.com")

	appt, svc, biz := testFixtures(time.Now().Add(24 * time.Hour))

	sent := d.SendBusinessNotification(context.Background(), TypeBusinessNewBooking, "owner@glowspa.com", biz.Phone, appt, svc, biz)
	assert.True(t, sent)

	// Channel order: whatsapp, then sms, then the email fallback.
	assert.Len(t, whatsapp.calls, 1)
	assert.Len(t, sms.calls, 1)
	assert.Len(t, email.calls, 1)
}
