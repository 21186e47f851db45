package domain

import (
	dErrors "clinreg/pkg/domain-errors"
	pstrings "clinreg/pkg/platform/strings"
)

// Patient is a registered person under clinical care.
//
// Invariants (additional to Person):
//   - Weight and height are strictly positive
//   - The allergies list is never nil (it may be empty) and holds trimmed,
//     deduplicated entries in insertion order
//   - The appointments list is never nil; the patient owns it exclusively
type Patient struct {
	Person
	weight       float64
	height       float64
	allergies    []string
	appointments []*Appointment
}

// NewPatient validates all fields and returns a valid Patient. The allergy
// list is normalized (trimmed, deduplicated, order preserved); nil is
// accepted and becomes an empty list.
//
// Errors: CodeInvalidData on any field contract violation.
func NewPatient(name string, age int, id, bloodType, address, phone string, weight, height float64, allergies []string) (*Patient, error) {
	person, err := NewPerson(name, age, id, bloodType, address, phone)
	if err != nil {
		return nil, err
	}
	p := &Patient{
		Person:       person,
		allergies:    []string{},
		appointments: []*Appointment{},
	}
	if err := p.SetWeight(weight); err != nil {
		return nil, err
	}
	if err := p.SetHeight(height); err != nil {
		return nil, err
	}
	p.SetAllergies(allergies)
	return p, nil
}

func (p *Patient) Weight() float64 { return p.weight }
func (p *Patient) Height() float64 { return p.height }

// Allergies returns a copy so callers cannot break the normalized list.
func (p *Patient) Allergies() []string {
	out := make([]string, len(p.allergies))
	copy(out, p.allergies)
	return out
}

// Appointments returns the patient's appointment list. The slice is a copy;
// the appointments themselves are shared references.
func (p *Patient) Appointments() []*Appointment {
	out := make([]*Appointment, len(p.appointments))
	copy(out, p.appointments)
	return out
}

func (p *Patient) SetWeight(weight float64) error {
	if weight <= 0 {
		return dErrors.Newf(dErrors.CodeInvalidData, "weight must be positive, got %g", weight)
	}
	p.weight = weight
	return nil
}

func (p *Patient) SetHeight(height float64) error {
	if height <= 0 {
		return dErrors.Newf(dErrors.CodeInvalidData, "height must be positive, got %g", height)
	}
	p.height = height
	return nil
}

// SetAllergies replaces the allergy list after normalization. Nil input
// yields an empty list, never a nil one.
func (p *Patient) SetAllergies(allergies []string) {
	normalized := pstrings.DedupeAndTrim(allergies)
	if normalized == nil {
		normalized = []string{}
	}
	p.allergies = normalized
}

// AddAppointment links an appointment to this patient. The appointment must
// reference this patient's ID.
func (p *Patient) AddAppointment(a *Appointment) error {
	if a == nil {
		return dErrors.New(dErrors.CodeInvalidData, "appointment must not be nil")
	}
	if pstrings.NormalizeKey(a.PatientID()) != p.Key() {
		return dErrors.Newf(dErrors.CodeInvalidData,
			"appointment %s belongs to patient %s, not %s", a.ID(), a.PatientID(), p.ID())
	}
	p.appointments = append(p.appointments, a)
	return nil
}

// CheckInvariant re-validates person and patient invariants without mutating
// state.
//
// Errors: CodeInvariantViolation naming the first violated field.
func (p *Patient) CheckInvariant() error {
	if err := p.Person.CheckInvariant(); err != nil {
		return err
	}
	switch {
	case p.weight <= 0:
		return dErrors.New(dErrors.CodeInvariantViolation, "patient weight is not positive")
	case p.height <= 0:
		return dErrors.New(dErrors.CodeInvariantViolation, "patient height is not positive")
	case p.allergies == nil:
		return dErrors.New(dErrors.CodeInvariantViolation, "patient allergies list is nil")
	case p.appointments == nil:
		return dErrors.New(dErrors.CodeInvariantViolation, "patient appointments list is nil")
	}
	return nil
}
