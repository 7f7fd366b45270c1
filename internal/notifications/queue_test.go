package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueItem_Validate(t *testing.T) {
	valid := QueueItem{
		Type:           TypeBookingConfirmation,
		RecipientType:  RecipientCustomer,
		RecipientEmail: "jane@example.com",
		ScheduledFor:   time.Now(),
	}
	assert.NoError(t, valid.Validate())

	noTime := valid
	noTime.ScheduledFor = time.Time{}
	assert.ErrorIs(t, noTime.Validate(), ErrInvalidScheduleTime)

	noEmail := valid
	noEmail.RecipientEmail = ""
	assert.ErrorIs(t, noEmail.Validate(), ErrMissingRecipientEmail)
}

func TestQueueItem_IsTerminal(t *testing.T) {
	tests := []struct {
		status   QueueStatus
		terminal bool
	}{
		{QueueStatusPending, false},
		{QueueStatusProcessed, true},
		{QueueStatusFailed, true},
	}

	for _, tt := range tests {
		item := QueueItem{Status: tt.status}
		assert.Equal(t, tt.terminal, item.IsTerminal(), "status %s", tt.status)
	}
}

func TestNotificationType_IsValid(t *testing.T) {
	valid := []NotificationType{
		TypeBookingConfirmation,
		TypeBookingReminder24h,
		TypeBookingReminder2h,
		TypeBookingReminder30m,
		TypeBookingCancellation,
		TypeBookingRescheduled,
		TypeBusinessNewBooking,
		TypeBusinessBookingCancelled,
		TypeBusinessBookingReminder,
		TypeBusinessBookingRescheduled,
	}
	for _, typ := range valid {
		assert.True(t, typ.IsValid(), "type %s", typ)
	}

	assert.False(t, NotificationType("password_reset").IsValid())
	assert.False(t, NotificationType("").IsValid())
}
