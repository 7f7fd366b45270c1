//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bookhive/bookhive/internal/testutil"
	"github.com/stretchr/testify/require"
)

// createTestBusiness inserts a business directly and returns its ID.
// Businesses are provisioned out of band, the booking API only reads them.
func createTestBusiness(t *testing.T, name, email string) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(context.Background(),
		`INSERT INTO businesses (name, email, phone, timezone)
		 VALUES ($1, $2, $3, 'UTC')
		 RETURNING id`,
		name, email, "+1 (555) 010-0000",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// createTestService inserts a service for a business and returns its ID.
func createTestService(t *testing.T, businessID, name string, minutes int, price float64) string {
	t.Helper()

	var id string
	err := testDB.QueryRow(context.Background(),
		`INSERT INTO services (business_id, name, duration_minutes, price, currency)
		 VALUES ($1, $2, $3, $4, 'USD')
		 RETURNING id`,
		businessID, name, minutes, price,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// bookingPayload builds a valid booking request a week out, so reminder
// notifications land in the future and only the immediate ones are due.
func bookingPayload(businessID, serviceID string) map[string]interface{} {
	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	return map[string]interface{}{
		"business_id":    businessID,
		"service_id":     serviceID,
		"customer_name":  "Jane Porter",
		"customer_email": "jane@example.com",
		"customer_phone": "+1 (555) 123-4567",
		"date":           date,
		"start_time":     "10:30",
		"end_time":       "11:30",
	}
}

// createTestBooking books an appointment through the API and returns its ID.
func createTestBooking(t *testing.T, client *testutil.Client, businessID, serviceID string) string {
	t.Helper()

	resp, err := client.POST("/api/v1/appointments", bookingPayload(businessID, serviceID))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.Data.ID)
	return result.Data.ID
}

// clearQueue empties the notification queue so tests observe only their
// own items.
func clearQueue(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `DELETE FROM notification_queue`)
	require.NoError(t, err)
}

// queueCounts returns pending/failed item counts for an appointment.
func queueCounts(t *testing.T, appointmentID string) (pending, failed int) {
	t.Helper()
	err := testDB.QueryRow(context.Background(),
		`SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'failed')
		 FROM notification_queue
		 WHERE payload->>'appointment_id' = $1`,
		appointmentID,
	).Scan(&pending, &failed)
	require.NoError(t, err)
	return pending, failed
}

// queueTypes returns the notification types currently pending for an
// appointment.
func queueTypes(t *testing.T, appointmentID string) map[string]int {
	t.Helper()
	rows, err := testDB.Query(context.Background(),
		`SELECT type FROM notification_queue
		 WHERE payload->>'appointment_id' = $1 AND status = 'pending'`,
		appointmentID,
	)
	require.NoError(t, err)
	defer rows.Close()

	types := make(map[string]int)
	for rows.Next() {
		var typ string
		require.NoError(t, rows.Scan(&typ))
		types[typ]++
	}
	require.NoError(t, rows.Err())
	return types
}

// backdateQueueItem pushes a queue item's updated_at into the past, for
// retention tests.
func backdateQueueItem(t *testing.T, id string, age time.Duration) {
	t.Helper()
	tag, err := testDB.Exec(context.Background(),
		`UPDATE notification_queue SET updated_at = NOW() - $2::interval WHERE id = $1`,
		id, fmt.Sprintf("%d seconds", int(age.Seconds())),
	)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}
