// Package registry orchestrates the per-entity stores: cross-reference
// resolution at load, duplicate and referential-integrity policy on writes,
// the transplant admission flow, and audit emission. Domain validation
// itself lives on the entities; this layer decides what may touch the files.
package registry

import (
	"context"
	"log/slog"

	"clinreg/internal/audit"
	"clinreg/internal/domain"
	"clinreg/internal/platform/config"
	"clinreg/internal/platform/metrics"
	"clinreg/internal/store"
	dErrors "clinreg/pkg/domain-errors"
	pstrings "clinreg/pkg/platform/strings"
)

// Service owns the four stores and the audit trail. Create one per process;
// the stores assume a single in-process writer.
type Service struct {
	patients     *store.PatientStore
	donors       *store.DonorStore
	appointments *store.AppointmentStore
	transplants  *store.TransplantStore
	trail        *audit.Trail
	log          *slog.Logger
}

// New wires a service from explicit stores. Trail may be nil to disable
// auditing; logger falls back to slog.Default.
func New(patients *store.PatientStore, donors *store.DonorStore, appointments *store.AppointmentStore, transplants *store.TransplantStore, trail *audit.Trail, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		patients:     patients,
		donors:       donors,
		appointments: appointments,
		transplants:  transplants,
		trail:        trail,
		log:          log,
	}
}

// NewFromConfig wires a service with file-backed stores at the configured
// paths. Metrics may be nil.
func NewFromConfig(cfg config.Registry, log *slog.Logger, m *metrics.Metrics) *Service {
	var trail *audit.Trail
	if cfg.AuditEnabled {
		trail = audit.New(cfg.AuditPath(), log, m)
	}
	return New(
		store.NewPatientStore(cfg.PatientPath(), log, m),
		store.NewDonorStore(cfg.DonorPath(), log, m),
		store.NewAppointmentStore(cfg.AppointmentPath(), log, m),
		store.NewTransplantStore(cfg.TransplantPath(), log, m),
		trail,
		log,
	)
}

// RegisterPatient validates and appends a new patient.
//
// Errors: CodeInvariantViolation when the record is invalid; CodeConflict
// when the ID is already registered.
func (s *Service) RegisterPatient(ctx context.Context, p *domain.Patient) error {
	if p == nil {
		return dErrors.New(dErrors.CodeInvalidData, "patient must not be nil")
	}
	if err := p.CheckInvariant(); err != nil {
		return err
	}
	if err := s.ensureFreeID(ctx, store.KindPatient, p.ID()); err != nil {
		return err
	}
	if err := s.patients.Append(ctx, p); err != nil {
		return err
	}
	s.trail.Record(ctx, audit.ActionRegister, store.KindPatient, p.ID(), p.Name())
	return nil
}

// Patient looks a patient up by ID, case-insensitively.
func (s *Service) Patient(ctx context.Context, id string) (*domain.Patient, error) {
	return s.patients.FindByID(ctx, id)
}

// Patients loads the full patient collection.
func (s *Service) Patients(ctx context.Context) ([]*domain.Patient, error) {
	return s.patients.Load(ctx)
}

// DeletePatient removes a patient unless appointments or transplants still
// reference it.
//
// Errors: CodeNotFound when absent; CodeConflict while referenced.
func (s *Service) DeletePatient(ctx context.Context, id string) error {
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)

	appointments, err := s.appointments.Load(ctx, patients)
	if err != nil {
		return err
	}
	for _, a := range appointments {
		if pstrings.NormalizeKey(a.PatientID()) == key {
			return dErrors.Newf(dErrors.CodeConflict,
				"patient %s still has appointment %s", id, a.ID())
		}
	}

	donors, err := s.donorIndex(ctx)
	if err != nil {
		return err
	}
	transplants, err := s.transplants.Load(ctx, donors, patients)
	if err != nil {
		return err
	}
	for _, t := range transplants {
		if t.Receiver().Key() == key {
			return dErrors.Newf(dErrors.CodeConflict,
				"patient %s still has transplant %s", id, t.ID())
		}
	}

	if err := s.patients.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.trail.Record(ctx, audit.ActionDelete, store.KindPatient, id, "")
	return nil
}

// RegisterDonor validates and appends a new donor.
func (s *Service) RegisterDonor(ctx context.Context, d *domain.Donor) error {
	if d == nil {
		return dErrors.New(dErrors.CodeInvalidData, "donor must not be nil")
	}
	if err := d.CheckInvariant(); err != nil {
		return err
	}
	if err := s.ensureFreeID(ctx, store.KindDonor, d.ID()); err != nil {
		return err
	}
	if err := s.donors.Append(ctx, d); err != nil {
		return err
	}
	s.trail.Record(ctx, audit.ActionRegister, store.KindDonor, d.ID(), d.Name())
	return nil
}

// Donor looks a donor up by ID, case-insensitively.
func (s *Service) Donor(ctx context.Context, id string) (*domain.Donor, error) {
	return s.donors.FindByID(ctx, id)
}

// Donors loads the full donor collection.
func (s *Service) Donors(ctx context.Context) ([]*domain.Donor, error) {
	return s.donors.Load(ctx)
}

// DeleteDonor removes a donor unless transplants still reference it.
//
// Errors: CodeNotFound when absent; CodeConflict while referenced.
func (s *Service) DeleteDonor(ctx context.Context, id string) error {
	donors, err := s.donorIndex(ctx)
	if err != nil {
		return err
	}
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return err
	}
	transplants, err := s.transplants.Load(ctx, donors, patients)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)
	for _, t := range transplants {
		if t.Donor().Key() == key {
			return dErrors.Newf(dErrors.CodeConflict,
				"donor %s still has transplant %s", id, t.ID())
		}
	}
	if err := s.donors.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.trail.Record(ctx, audit.ActionDelete, store.KindDonor, id, "")
	return nil
}

// ScheduleAppointment appends a new appointment after verifying its patient
// reference resolves.
//
// Errors: CodeNotFound when the patient does not exist; CodeConflict when
// the appointment ID is taken.
func (s *Service) ScheduleAppointment(ctx context.Context, a *domain.Appointment) error {
	if a == nil {
		return dErrors.New(dErrors.CodeInvalidData, "appointment must not be nil")
	}
	if err := a.CheckInvariant(); err != nil {
		return err
	}
	patient, err := s.patients.FindByID(ctx, a.PatientID())
	if err != nil {
		return err
	}
	if err := a.ResolvePatient(patient); err != nil {
		return err
	}
	if err := s.ensureFreeID(ctx, store.KindAppointment, a.ID()); err != nil {
		return err
	}
	if err := s.appointments.Append(ctx, a); err != nil {
		return err
	}
	s.trail.Record(ctx, audit.ActionRegister, store.KindAppointment, a.ID(), "patient "+a.PatientID())
	return nil
}

// Appointments loads the appointment collection with patient references
// resolved and the expiration pass applied.
func (s *Service) Appointments(ctx context.Context) ([]*domain.Appointment, error) {
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return nil, err
	}
	return s.appointments.Load(ctx, patients)
}

// Appointment looks an appointment up by ID, case-insensitively.
func (s *Service) Appointment(ctx context.Context, id string) (*domain.Appointment, error) {
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return nil, err
	}
	return s.appointments.FindByID(ctx, id, patients)
}

// ConfirmAppointment transitions one appointment to confirmed and persists
// the collection.
func (s *Service) ConfirmAppointment(ctx context.Context, id string) error {
	return s.transitionAppointment(ctx, id, audit.ActionConfirm, func(a *domain.Appointment) error {
		return a.Confirm()
	})
}

// CancelAppointment transitions one appointment to cancelled and persists
// the collection.
func (s *Service) CancelAppointment(ctx context.Context, id string) error {
	return s.transitionAppointment(ctx, id, audit.ActionCancel, func(a *domain.Appointment) error {
		return a.Cancel()
	})
}

// RescheduleAppointment moves one appointment to a new date and time and
// persists the collection.
func (s *Service) RescheduleAppointment(ctx context.Context, id, date, timeOfDay string) error {
	return s.transitionAppointment(ctx, id, audit.ActionReschedule, func(a *domain.Appointment) error {
		return a.Reschedule(date, timeOfDay)
	})
}

func (s *Service) transitionAppointment(ctx context.Context, id, action string, apply func(*domain.Appointment) error) error {
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return err
	}
	appointments, err := s.appointments.Load(ctx, patients)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)
	var target *domain.Appointment
	for _, a := range appointments {
		if pstrings.NormalizeKey(a.ID()) == key {
			target = a
			break
		}
	}
	if target == nil {
		return dErrors.Newf(dErrors.CodeNotFound, "appointment %s", id)
	}
	if err := apply(target); err != nil {
		return err
	}
	if err := s.appointments.Save(ctx, appointments); err != nil {
		return err
	}
	s.trail.Record(ctx, action, store.KindAppointment, target.ID(), target.Status().String())
	return nil
}

// AdmitTransplant runs the transplant admission flow: both parties must be
// selected and registered, the organ must be transplantable and consistent
// with the donor's declaration, and the blood types must be compatible.
// On success the transplant is appended and returned.
//
// Errors: CodeTransplantInvalid when a selection is missing; CodeNotFound
// when a selection does not resolve; CodeBloodIncompatible on a failing
// pair; CodeConflict when the transplant ID is taken.
func (s *Service) AdmitTransplant(ctx context.Context, id, organType, donorID, receiverID, date string) (*domain.Transplant, error) {
	if pstrings.NormalizeKey(donorID) == "" {
		return nil, dErrors.New(dErrors.CodeTransplantInvalid, "no donor selected")
	}
	if pstrings.NormalizeKey(receiverID) == "" {
		return nil, dErrors.New(dErrors.CodeTransplantInvalid, "no receiving patient selected")
	}
	donor, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.patients.FindByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	t, err := domain.NewTransplant(id, organType, donor, receiver, date)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFreeID(ctx, store.KindTransplant, t.ID()); err != nil {
		return nil, err
	}
	if err := s.transplants.Append(ctx, t); err != nil {
		return nil, err
	}
	s.trail.Record(ctx, audit.ActionRegister, store.KindTransplant, t.ID(),
		"donor "+donor.ID()+" to patient "+receiver.ID())
	return t, nil
}

// Transplants loads the transplant collection with references resolved.
func (s *Service) Transplants(ctx context.Context) ([]*domain.Transplant, error) {
	donors, err := s.donorIndex(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return nil, err
	}
	return s.transplants.Load(ctx, donors, patients)
}

// Transplant looks a transplant up by ID, case-insensitively.
func (s *Service) Transplant(ctx context.Context, id string) (*domain.Transplant, error) {
	donors, err := s.donorIndex(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return nil, err
	}
	return s.transplants.FindByID(ctx, id, donors, patients)
}

// ApproveTransplant transitions one transplant to approved and persists the
// collection.
func (s *Service) ApproveTransplant(ctx context.Context, id string) error {
	return s.transitionTransplant(ctx, id, audit.ActionApprove, func(t *domain.Transplant) error {
		return t.Approve()
	})
}

// RejectTransplant transitions one transplant to rejected with the given
// reason and persists the collection.
func (s *Service) RejectTransplant(ctx context.Context, id, reason string) error {
	return s.transitionTransplant(ctx, id, audit.ActionReject, func(t *domain.Transplant) error {
		return t.Reject(reason)
	})
}

func (s *Service) transitionTransplant(ctx context.Context, id, action string, apply func(*domain.Transplant) error) error {
	donors, err := s.donorIndex(ctx)
	if err != nil {
		return err
	}
	patients, err := s.patientIndex(ctx)
	if err != nil {
		return err
	}
	transplants, err := s.transplants.Load(ctx, donors, patients)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)
	var target *domain.Transplant
	for _, t := range transplants {
		if pstrings.NormalizeKey(t.ID()) == key {
			target = t
			break
		}
	}
	if target == nil {
		return dErrors.Newf(dErrors.CodeNotFound, "transplant %s", id)
	}
	if err := apply(target); err != nil {
		return err
	}
	if err := s.transplants.Save(ctx, transplants); err != nil {
		return err
	}
	s.trail.Record(ctx, action, store.KindTransplant, target.ID(), target.Status().String())
	return nil
}

// AuditTrail exposes the recorded events, newest last. Returns nil when
// auditing is disabled.
func (s *Service) AuditTrail(ctx context.Context) ([]audit.Event, error) {
	return s.trail.List(ctx)
}

func (s *Service) patientIndex(ctx context.Context) (map[string]*domain.Patient, error) {
	patients, err := s.patients.Load(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*domain.Patient, len(patients))
	for _, p := range patients {
		index[p.Key()] = p
	}
	return index, nil
}

func (s *Service) donorIndex(ctx context.Context) (map[string]*domain.Donor, error) {
	donors, err := s.donors.Load(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*domain.Donor, len(donors))
	for _, d := range donors {
		index[d.Key()] = d
	}
	return index, nil
}

// ensureFreeID rejects registration under an ID that already resolves.
func (s *Service) ensureFreeID(ctx context.Context, kind, id string) error {
	var err error
	switch kind {
	case store.KindPatient:
		_, err = s.patients.FindByID(ctx, id)
	case store.KindDonor:
		_, err = s.donors.FindByID(ctx, id)
	case store.KindAppointment:
		patients, idxErr := s.patientIndex(ctx)
		if idxErr != nil {
			return idxErr
		}
		_, err = s.appointments.FindByID(ctx, id, patients)
	case store.KindTransplant:
		donors, idxErr := s.donorIndex(ctx)
		if idxErr != nil {
			return idxErr
		}
		patients, idxErr := s.patientIndex(ctx)
		if idxErr != nil {
			return idxErr
		}
		_, err = s.transplants.FindByID(ctx, id, donors, patients)
	}
	if err == nil {
		return dErrors.Newf(dErrors.CodeConflict, "%s %s already registered", kind, id)
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil
	}
	return err
}
