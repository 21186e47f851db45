package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clinreg/pkg/domain-errors"
)

func pendingAppointment(t *testing.T) *Appointment {
	t.Helper()
	a, err := NewAppointment("C001", "15/03/2026", "09:30", "Sede Norte", "P001", "Dra. Molina")
	require.NoError(t, err)
	return a
}

func TestNewAppointment(t *testing.T) {
	t.Run("valid fields construct pending and pass the invariant check", func(t *testing.T) {
		a := pendingAppointment(t)
		assert.Equal(t, AppointmentPending, a.Status())
		assert.NoError(t, a.CheckInvariant())
		assert.Equal(t, "15/03/2026", a.Date())
		assert.Equal(t, "09:30", a.TimeOfDay())
	})

	t.Run("bad date fails with the date code", func(t *testing.T) {
		_, err := NewAppointment("C001", "2026-03-15", "09:30", "Sede Norte", "P001", "Dra. Molina")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDateInvalid))
	})

	t.Run("bad time fails with the date code", func(t *testing.T) {
		_, err := NewAppointment("C001", "15/03/2026", "9h30", "Sede Norte", "P001", "Dra. Molina")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDateInvalid))
	})

	tests := []struct {
		name                                       string
		id, date, tod, location, patientID, doctor string
	}{
		{"empty id", "", "15/03/2026", "09:30", "Sede Norte", "P001", "Dra. Molina"},
		{"empty location", "C001", "15/03/2026", "09:30", " ", "P001", "Dra. Molina"},
		{"empty patient reference", "C001", "15/03/2026", "09:30", "Sede Norte", "", "Dra. Molina"},
		{"empty doctor", "C001", "15/03/2026", "09:30", "Sede Norte", "P001", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAppointment(tt.id, tt.date, tt.tod, tt.location, tt.patientID, tt.doctor)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidData))
		})
	}
}

func TestAppointment_Lifecycle(t *testing.T) {
	t.Run("confirm from pending", func(t *testing.T) {
		a := pendingAppointment(t)
		require.NoError(t, a.Confirm())
		assert.Equal(t, AppointmentConfirmed, a.Status())
	})

	t.Run("confirm is idempotent", func(t *testing.T) {
		a := pendingAppointment(t)
		require.NoError(t, a.Confirm())
		require.NoError(t, a.Confirm())
		assert.Equal(t, AppointmentConfirmed, a.Status())
	})

	t.Run("cancel overrides a confirmation and is terminal", func(t *testing.T) {
		a := pendingAppointment(t)
		require.NoError(t, a.Confirm())
		require.NoError(t, a.Cancel())
		assert.Equal(t, AppointmentCancelled, a.Status())

		err := a.Confirm()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		err = a.Reschedule("16/03/2026", "10:00")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		err = a.Cancel()
		require.Error(t, err, "cancelling twice fails")
	})

	t.Run("reschedule keeps status", func(t *testing.T) {
		a := pendingAppointment(t)
		require.NoError(t, a.Reschedule("20/03/2026", "11:45"))
		assert.Equal(t, AppointmentPending, a.Status())
		assert.Equal(t, "20/03/2026", a.Date())
		assert.Equal(t, "11:45", a.TimeOfDay())
	})

	t.Run("reschedule rejects a malformed date", func(t *testing.T) {
		a := pendingAppointment(t)
		err := a.Reschedule("31/02", "11:45")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDateInvalid))
	})
}

func TestAppointment_ExpireIfDue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)

	t.Run("pending in the past completes", func(t *testing.T) {
		a := pendingAppointment(t) // 15/03/2026 09:30
		assert.True(t, a.ExpireIfDue(now))
		assert.Equal(t, AppointmentCompleted, a.Status())
	})

	t.Run("pending in the future stays pending", func(t *testing.T) {
		a := pendingAppointment(t)
		assert.False(t, a.ExpireIfDue(time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local)))
		assert.Equal(t, AppointmentPending, a.Status())
	})

	t.Run("exactly at the scheduled moment stays pending", func(t *testing.T) {
		a := pendingAppointment(t)
		assert.False(t, a.ExpireIfDue(a.ScheduledAt()))
	})

	t.Run("confirmed appointments do not auto-expire", func(t *testing.T) {
		a := pendingAppointment(t)
		require.NoError(t, a.Confirm())
		assert.False(t, a.ExpireIfDue(now))
		assert.Equal(t, AppointmentConfirmed, a.Status())
	})
}

func TestAppointment_ResolvePatient(t *testing.T) {
	a := pendingAppointment(t)
	p := validPatient(t, "P001")

	require.NoError(t, a.ResolvePatient(p))
	assert.Same(t, p, a.Patient())

	other := validPatient(t, "P999")
	assert.Error(t, a.ResolvePatient(other))
	assert.Error(t, a.ResolvePatient(nil))
}

func TestParseAppointmentStatus(t *testing.T) {
	status, err := ParseAppointmentStatus(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, AppointmentConfirmed, status)

	_, err = ParseAppointmentStatus("postponed")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidData))
}
