package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinreg/internal/domain"
	"clinreg/internal/platform/metrics"
	pstrings "clinreg/pkg/platform/strings"
)

func patientIndex(t *testing.T, ids ...string) map[string]*domain.Patient {
	t.Helper()
	index := make(map[string]*domain.Patient, len(ids))
	for _, id := range ids {
		p, err := domain.NewPatient("Carlos Ruiz", 45, id, "B+", "", "", 70.5, 1.75, nil)
		require.NoError(t, err)
		index[pstrings.NormalizeKey(id)] = p
	}
	return index
}

func newAppointmentStore(t *testing.T) (*AppointmentStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Cita.txt")
	log, m := testDeps(t)
	return NewAppointmentStore(path, log, m), path
}

func appointmentAt(t *testing.T, id, date, tod string) *domain.Appointment {
	t.Helper()
	a, err := domain.NewAppointment(id, date, tod, "Sede Norte", "P001", "Dra. Molina")
	require.NoError(t, err)
	return a
}

func TestAppointmentStore_RoundTrip(t *testing.T) {
	store, _ := newAppointmentStore(t)
	ctx := context.Background()
	patients := patientIndex(t, "P001")

	future := appointmentAt(t, "C001", "15/03/2030", "09:30")
	require.NoError(t, future.Confirm())
	require.NoError(t, store.Append(ctx, future))

	loaded, err := store.Load(ctx, patients)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.AppointmentConfirmed, loaded[0].Status())
	assert.Equal(t, "15/03/2030", loaded[0].Date())
	assert.NotNil(t, loaded[0].Patient())
	assert.Equal(t, EncodeAppointment(future), EncodeAppointment(loaded[0]))
}

func TestAppointmentStore_LoadExpiresPastPending(t *testing.T) {
	store, path := newAppointmentStore(t)
	ctx := context.Background()
	patients := patientIndex(t, "P001")

	now := time.Date(2026, 3, 16, 8, 0, 0, 0, time.Local)
	store.WithClock(func() time.Time { return now })

	past := appointmentAt(t, "C001", "15/03/2026", "09:30")
	future := appointmentAt(t, "C002", "15/03/2027", "09:30")
	require.NoError(t, store.Save(ctx, []*domain.Appointment{past, future}))

	loaded, err := store.Load(ctx, patients)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, domain.AppointmentCompleted, loaded[0].Status())
	assert.Equal(t, domain.AppointmentPending, loaded[1].Status())

	// The expiration must be persisted: the raw file now carries completed.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "completed")

	// A second load finds nothing new to expire.
	again, err := store.Load(ctx, patients)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCompleted, again[0].Status())
}

func TestAppointmentStore_ExpiredCounterTracksTransitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Cita.txt")
	log, _ := testDeps(t)
	m := metrics.New(prometheus.NewRegistry())
	store := NewAppointmentStore(path, log, m).
		WithClock(func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local) })

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []*domain.Appointment{
		appointmentAt(t, "C001", "15/03/2026", "09:30"),
	}))

	_, err := store.Load(ctx, patientIndex(t, "P001"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.AppointmentsExpired))
}

func TestAppointmentStore_UnresolvedPatientDropsRecord(t *testing.T) {
	store, _ := newAppointmentStore(t)
	ctx := context.Background()

	orphan := appointmentAt(t, "C001", "15/03/2030", "09:30") // references P001
	require.NoError(t, store.Append(ctx, orphan))

	loaded, err := store.Load(ctx, patientIndex(t, "P999"))
	require.NoError(t, err, "an unresolved reference is logged, not fatal")
	assert.Empty(t, loaded)
}

func TestAppointmentStore_LoadSkipsMalformedLines(t *testing.T) {
	store, path := newAppointmentStore(t)
	ctx := context.Background()

	lines := strings.Join([]string{
		EncodeAppointment(appointmentAt(t, "C001", "15/03/2030", "09:30")),
		"C002;31/02/2030;09:30;Sede Norte;P001;Dra. Molina;pending",  // impossible date
		"C003;15/03/2030;09:30;Sede Norte;P001;Dra. Molina;archived", // unknown status
		"demasiado;corto",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(lines+"\n"), 0o644))

	loaded, err := store.Load(ctx, patientIndex(t, "P001"))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "C001", loaded[0].ID())
}

func TestAppointmentStore_FindAndDelete(t *testing.T) {
	store, _ := newAppointmentStore(t)
	ctx := context.Background()
	patients := patientIndex(t, "P001")

	require.NoError(t, store.Append(ctx, appointmentAt(t, "C001", "15/03/2030", "09:30")))
	require.NoError(t, store.Append(ctx, appointmentAt(t, "C002", "16/03/2030", "10:00")))

	found, err := store.FindByID(ctx, "c001", patients)
	require.NoError(t, err)
	assert.Equal(t, "C001", found.ID())

	_, err = store.FindByID(ctx, "C404", patients)
	assert.Error(t, err)

	require.NoError(t, store.DeleteByID(ctx, "C001", patients))
	remaining, err := store.Load(ctx, patients)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "C002", remaining[0].ID())
}
