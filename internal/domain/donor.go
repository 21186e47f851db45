package domain

import (
	"strings"

	"clinreg/internal/compat"
	dErrors "clinreg/pkg/domain-errors"
)

// minDonorAge is the legal donation age.
const minDonorAge = 18

// Known donation types. The field accepts other non-empty values, but only
// DonationOrgans triggers the organ requirement.
const (
	DonationBlood  = "Sangre"
	DonationOrgans = "Órganos"
)

// Donor is a registered person eligible to donate blood or organs.
//
// Invariants (additional to Person):
//   - Age is at least 18
//   - DonationType and HealthStatus are non-empty
//   - Organ is required when DonationType is an organ donation, and when set
//     must belong to the transplantable-organ whitelist
type Donor struct {
	Person
	donationType string
	healthStatus string
	eligible     bool
	organ        string
}

// NewDonor validates all fields and returns a valid Donor.
//
// Errors: CodeUnderage when age < 18; CodeInvalidData on any other field
// contract violation.
func NewDonor(name string, age int, id, bloodType, address, phone, donationType, healthStatus string, eligible bool, organ string) (*Donor, error) {
	person, err := NewPerson(name, age, id, bloodType, address, phone)
	if err != nil {
		return nil, err
	}
	if age < minDonorAge {
		return nil, dErrors.Newf(dErrors.CodeUnderage, "donor must be at least %d, got %d", minDonorAge, age)
	}
	d := &Donor{Person: person, eligible: eligible}
	if err := d.SetDonationType(donationType); err != nil {
		return nil, err
	}
	if err := d.SetHealthStatus(healthStatus); err != nil {
		return nil, err
	}
	if err := d.SetOrgan(organ); err != nil {
		return nil, err
	}
	if d.IsOrganDonor() && d.organ == "" {
		return nil, dErrors.New(dErrors.CodeInvalidData, "organ donors must declare an organ")
	}
	return d, nil
}

func (d *Donor) DonationType() string { return d.donationType }
func (d *Donor) HealthStatus() string { return d.healthStatus }
func (d *Donor) Eligible() bool       { return d.eligible }
func (d *Donor) Organ() string        { return d.organ }

// IsOrganDonor reports whether the declared donation type implies organ
// donation.
func (d *Donor) IsOrganDonor() bool {
	return strings.EqualFold(d.donationType, DonationOrgans) ||
		strings.EqualFold(d.donationType, "Organos")
}

// SetAge narrows the person setter: donors never drop below the legal age.
func (d *Donor) SetAge(age int) error {
	if age < minDonorAge {
		return dErrors.Newf(dErrors.CodeUnderage, "donor must be at least %d, got %d", minDonorAge, age)
	}
	return d.Person.SetAge(age)
}

func (d *Donor) SetDonationType(donationType string) error {
	trimmed := strings.TrimSpace(donationType)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidData, "donation type must not be empty")
	}
	d.donationType = trimmed
	return nil
}

func (d *Donor) SetHealthStatus(healthStatus string) error {
	trimmed := strings.TrimSpace(healthStatus)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidData, "health status must not be empty")
	}
	d.healthStatus = trimmed
	return nil
}

func (d *Donor) SetEligible(eligible bool) {
	d.eligible = eligible
}

// SetOrgan records the declared organ in canonical whitelist spelling. An
// empty value clears the declaration.
func (d *Donor) SetOrgan(organ string) error {
	if strings.TrimSpace(organ) == "" {
		d.organ = ""
		return nil
	}
	canonical, err := compat.CanonicalOrgan(organ)
	if err != nil {
		return err
	}
	d.organ = canonical
	return nil
}

// CheckInvariant re-validates person and donor invariants without mutating
// state.
//
// Errors: CodeInvariantViolation naming the first violated field.
func (d *Donor) CheckInvariant() error {
	if err := d.Person.CheckInvariant(); err != nil {
		return err
	}
	switch {
	case d.Age() < minDonorAge:
		return dErrors.New(dErrors.CodeInvariantViolation, "donor age is below the legal donation age")
	case d.donationType == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "donor donation type is empty")
	case d.healthStatus == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "donor health status is empty")
	case d.organ != "" && !compat.ValidOrgan(d.organ):
		return dErrors.New(dErrors.CodeInvariantViolation, "donor organ is not transplantable")
	case d.IsOrganDonor() && d.organ == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "organ donor has no declared organ")
	}
	return nil
}
