package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"clinreg/internal/domain"
	"clinreg/internal/platform/metrics"
	dErrors "clinreg/pkg/domain-errors"
	"clinreg/pkg/platform/sentinel"
	pstrings "clinreg/pkg/platform/strings"
)

// appointmentFields is the fixed field count of a serialized appointment:
// id;date;time;location;patientId;doctor;status
const appointmentFields = 7

// AppointmentStore persists appointments to a semicolon-delimited flat file.
//
// Load resolves each record's patient reference against the index the caller
// provides and applies the auto-expiration rule: pending appointments whose
// scheduled moment is already past are completed and the file is rewritten
// in place. Load is therefore not read-only.
type AppointmentStore struct {
	path    string
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAppointmentStore(path string, log *slog.Logger, m *metrics.Metrics) *AppointmentStore {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentStore{path: path, log: log, metrics: m, now: time.Now}
}

// WithClock overrides the expiration clock, for tests.
func (s *AppointmentStore) WithClock(now func() time.Time) *AppointmentStore {
	s.now = now
	return s
}

// EncodeAppointment renders one wire line for an appointment.
func EncodeAppointment(a *domain.Appointment) string {
	fields := []string{
		a.ID(),
		a.Date(),
		a.TimeOfDay(),
		a.Location(),
		a.PatientID(),
		a.Doctor(),
		a.Status().String(),
	}
	return strings.Join(fields, ";")
}

// DecodeAppointment parses one wire line, resolving the patient reference
// against the given index (normalized ID -> patient).
//
// Errors: CodeInvalidData or CodeDateInvalid on malformed fields;
// CodeNotFound when the referenced patient is not in the index.
func DecodeAppointment(line string, patients map[string]*domain.Patient) (*domain.Appointment, error) {
	fields := strings.Split(line, ";")
	if len(fields) != appointmentFields {
		return nil, dErrors.Newf(dErrors.CodeInvalidData,
			"expected %d fields, got %d", appointmentFields, len(fields))
	}
	a, err := domain.NewAppointment(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseAppointmentStatus(fields[6])
	if err != nil {
		return nil, err
	}
	if err := a.RestoreStatus(status); err != nil {
		return nil, err
	}
	patient, ok := patients[pstrings.NormalizeKey(a.PatientID())]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "patient %s not registered", a.PatientID())
	}
	if err := a.ResolvePatient(patient); err != nil {
		return nil, err
	}
	return a, nil
}

// Load reads the full collection, resolving patient references against the
// given index. Malformed or unresolvable lines are skipped with a warning.
// Pending appointments already past are completed and, when any expired, the
// file is rewritten before returning, so the persisted statuses match what
// the caller sees.
func (s *AppointmentStore) Load(ctx context.Context, patients map[string]*domain.Patient) ([]*domain.Appointment, error) {
	lines, err := readLines(s.path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reading appointment file")
	}
	appointments := make([]*domain.Appointment, 0, len(lines))
	for i, line := range lines {
		a, err := DecodeAppointment(line, patients)
		if err != nil {
			s.log.WarnContext(ctx, "skipping appointment line",
				"file", s.path, "line", i+1, "error", err)
			s.metrics.IncrementSkipped(KindAppointment)
			continue
		}
		if err := a.Patient().AddAppointment(a); err != nil {
			s.log.WarnContext(ctx, "skipping appointment line",
				"file", s.path, "line", i+1, "error", err)
			s.metrics.IncrementSkipped(KindAppointment)
			continue
		}
		appointments = append(appointments, a)
	}

	now := s.now()
	expired := 0
	for _, a := range appointments {
		if a.ExpireIfDue(now) {
			expired++
		}
	}
	if expired > 0 {
		s.log.InfoContext(ctx, "expired pending appointments", "count", expired)
		s.metrics.IncrementExpired(expired)
		if err := s.Save(ctx, appointments); err != nil {
			return nil, err
		}
	}

	s.metrics.IncrementLoaded(KindAppointment, len(appointments))
	return appointments, nil
}

// Save rewrites the backing file from the given collection.
func (s *AppointmentStore) Save(ctx context.Context, appointments []*domain.Appointment) error {
	lines := make([]string, 0, len(appointments))
	for _, a := range appointments {
		lines = append(lines, EncodeAppointment(a))
	}
	if err := rewriteLines(s.path, lines); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "saving appointment file")
	}
	s.metrics.IncrementSaved(KindAppointment, len(appointments))
	return nil
}

// Append adds one appointment to the end of the file without a full rewrite.
func (s *AppointmentStore) Append(ctx context.Context, a *domain.Appointment) error {
	if err := appendLine(s.path, EncodeAppointment(a)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "appending appointment")
	}
	s.metrics.IncrementSaved(KindAppointment, 1)
	return nil
}

// FindByID scans the collection for a case-insensitive ID match.
//
// Errors: CodeNotFound (wrapping sentinel.ErrNotFound) when absent.
func (s *AppointmentStore) FindByID(ctx context.Context, id string, patients map[string]*domain.Patient) (*domain.Appointment, error) {
	appointments, err := s.Load(ctx, patients)
	if err != nil {
		return nil, err
	}
	key := pstrings.NormalizeKey(id)
	for _, a := range appointments {
		if pstrings.NormalizeKey(a.ID()) == key {
			return a, nil
		}
	}
	return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "appointment "+id)
}

// DeleteByID removes every record matching the ID and rewrites the file.
//
// Errors: CodeNotFound when nothing matched.
func (s *AppointmentStore) DeleteByID(ctx context.Context, id string, patients map[string]*domain.Patient) error {
	appointments, err := s.Load(ctx, patients)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)
	remaining := make([]*domain.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if pstrings.NormalizeKey(a.ID()) != key {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) == len(appointments) {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "appointment "+id)
	}
	return s.Save(ctx, remaining)
}
