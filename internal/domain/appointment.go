package domain

import (
	"strings"
	"time"

	dErrors "clinreg/pkg/domain-errors"
)

// Wire layouts for appointment and transplant dates. dd/MM/yyyy and HH:mm,
// matching the flat-file formats.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// ParseAppointmentStatus constructs a status from external input.
//
// Errors: CodeInvalidData when the value is not a known status.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidData, "unknown appointment status %q", s)
	}
	return status, nil
}

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave this state.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentCancelled || s == AppointmentCompleted
}

// CanTransitionTo encodes the lifecycle:
// pending -> confirmed | cancelled | completed, confirmed -> cancelled,
// cancelled and completed terminal. Completion is time-driven only; callers
// other than the expiration pass must not request it.
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	switch s {
	case AppointmentPending:
		return target == AppointmentConfirmed || target == AppointmentCancelled || target == AppointmentCompleted
	case AppointmentConfirmed:
		return target == AppointmentCancelled
	default:
		return false
	}
}

func (s AppointmentStatus) String() string { return string(s) }

// Appointment is a scheduled consultation for one existing patient.
//
// Invariants:
//   - ID, location and doctor are non-empty
//   - The scheduled date and time are set
//   - PatientID references exactly one existing patient (shared, not owned)
//   - Status is one of the four lifecycle states; initial state is pending
//
// Status transitions go through Confirm, Cancel and ExpireIfDue only;
// operations on a terminal appointment fail rather than silently no-op.
type Appointment struct {
	id        string
	when      time.Time
	location  string
	patientID string
	patient   *Patient
	doctor    string
	status    AppointmentStatus
}

// NewAppointment parses and validates all fields and returns a pending
// appointment. Date is dd/MM/yyyy, time of day HH:mm.
//
// Errors: CodeDateInvalid when date or time fail to parse; CodeInvalidData on
// any other field contract violation.
func NewAppointment(id, date, timeOfDay, location, patientID, doctor string) (*Appointment, error) {
	a := &Appointment{status: AppointmentPending}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidData, "appointment id must not be empty")
	}
	a.id = trimmedID
	if err := a.setSchedule(date, timeOfDay); err != nil {
		return nil, err
	}
	if err := a.SetLocation(location); err != nil {
		return nil, err
	}
	trimmedPatient := strings.TrimSpace(patientID)
	if trimmedPatient == "" {
		return nil, dErrors.New(dErrors.CodeInvalidData, "appointment patient id must not be empty")
	}
	a.patientID = trimmedPatient
	if err := a.SetDoctor(doctor); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Appointment) ID() string                { return a.id }
func (a *Appointment) ScheduledAt() time.Time    { return a.when }
func (a *Appointment) Date() string              { return a.when.Format(DateLayout) }
func (a *Appointment) TimeOfDay() string         { return a.when.Format(TimeLayout) }
func (a *Appointment) Location() string          { return a.location }
func (a *Appointment) PatientID() string         { return a.patientID }
func (a *Appointment) Doctor() string            { return a.doctor }
func (a *Appointment) Status() AppointmentStatus { return a.status }

// Patient returns the resolved patient reference, nil until resolved.
func (a *Appointment) Patient() *Patient { return a.patient }

// ResolvePatient attaches the patient this appointment references.
//
// Errors: CodeInvalidData when the patient is nil or its ID does not match.
func (a *Appointment) ResolvePatient(p *Patient) error {
	if p == nil {
		return dErrors.New(dErrors.CodeInvalidData, "patient must not be nil")
	}
	if !strings.EqualFold(strings.TrimSpace(p.ID()), a.patientID) {
		return dErrors.Newf(dErrors.CodeInvalidData,
			"patient %s does not match appointment reference %s", p.ID(), a.patientID)
	}
	a.patient = p
	return nil
}

func (a *Appointment) SetLocation(location string) error {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidData, "appointment location must not be empty")
	}
	a.location = trimmed
	return nil
}

func (a *Appointment) SetDoctor(doctor string) error {
	trimmed := strings.TrimSpace(doctor)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidData, "appointment doctor must not be empty")
	}
	a.doctor = trimmed
	return nil
}

func (a *Appointment) setSchedule(date, timeOfDay string) error {
	day, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return dErrors.Newf(dErrors.CodeDateInvalid, "date %q does not match dd/MM/yyyy", date)
	}
	tod, err := time.Parse(TimeLayout, strings.TrimSpace(timeOfDay))
	if err != nil {
		return dErrors.Newf(dErrors.CodeDateInvalid, "time %q does not match HH:mm", timeOfDay)
	}
	a.when = time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, time.Local)
	return nil
}

// RestoreStatus reinstates a persisted lifecycle state when rebuilding an
// appointment from storage. It bypasses the transition rules, which only
// govern live mutations.
//
// Errors: CodeInvalidData when the status is not a lifecycle state.
func (a *Appointment) RestoreStatus(status AppointmentStatus) error {
	if !status.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidData, "unknown appointment status %q", status)
	}
	a.status = status
	return nil
}

// Confirm moves the appointment to confirmed. Confirming an already
// confirmed appointment is a no-op.
//
// Errors: CodeInvariantViolation from a terminal state.
func (a *Appointment) Confirm() error {
	if a.status == AppointmentConfirmed {
		return nil
	}
	if !a.status.CanTransitionTo(AppointmentConfirmed) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot confirm a %s appointment", a.status)
	}
	a.status = AppointmentConfirmed
	return nil
}

// Cancel moves the appointment to cancelled, overriding a confirmation.
// Cancelled is terminal.
//
// Errors: CodeInvariantViolation from a terminal state.
func (a *Appointment) Cancel() error {
	if !a.status.CanTransitionTo(AppointmentCancelled) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot cancel a %s appointment", a.status)
	}
	a.status = AppointmentCancelled
	return nil
}

// Reschedule updates date and time without changing status.
//
// Errors: CodeInvariantViolation from a terminal state; CodeDateInvalid when
// the new date or time fail to parse.
func (a *Appointment) Reschedule(date, timeOfDay string) error {
	if a.status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot reschedule a %s appointment", a.status)
	}
	return a.setSchedule(date, timeOfDay)
}

// ExpireIfDue completes a pending appointment whose scheduled moment is
// strictly before now. It reports whether a transition happened; the caller
// is responsible for persisting it.
func (a *Appointment) ExpireIfDue(now time.Time) bool {
	if a.status != AppointmentPending || !a.when.Before(now) {
		return false
	}
	a.status = AppointmentCompleted
	return true
}

// CheckInvariant re-validates the appointment invariants without mutating
// state.
//
// Errors: CodeInvariantViolation naming the first violated field.
func (a *Appointment) CheckInvariant() error {
	switch {
	case strings.TrimSpace(a.id) == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "appointment id is empty")
	case a.when.IsZero():
		return dErrors.New(dErrors.CodeInvariantViolation, "appointment date and time are not set")
	case strings.TrimSpace(a.location) == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "appointment location is empty")
	case strings.TrimSpace(a.patientID) == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "appointment patient reference is empty")
	case strings.TrimSpace(a.doctor) == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "appointment doctor is empty")
	case !a.status.IsValid():
		return dErrors.New(dErrors.CodeInvariantViolation, "appointment status is not a lifecycle state")
	}
	return nil
}
