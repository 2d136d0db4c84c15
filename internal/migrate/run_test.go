package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_Ordered(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_tenancy", "0002_schedule", "0003_booking_capacity"}, versions)
}

func TestCapacityMigration_RaisesNamedConstraint(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/0003_booking_capacity.sql")
	require.NoError(t, err)
	body := string(raw)

	// internal/errors maps this constraint name to the capacity error code.
	assert.Contains(t, body, "CONSTRAINT = 'bookings_capacity'")
	assert.Contains(t, body, "ERRCODE = 'check_violation'")
	assert.Contains(t, body, "BEFORE INSERT ON bookings")
}

func TestScheduleMigration_UniqueBookingPerUser(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/0002_schedule.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "UNIQUE (schedule_id, user_id)")
}
