// Package domain holds the clinical registry entity model: persons, patients,
// donors, appointments and transplants. Constructors validate eagerly and
// never return a half-valid value; setters re-validate the field being set;
// CheckInvariant re-checks everything on demand without mutating state.
package domain

import (
	"strings"

	dErrors "clinreg/pkg/domain-errors"
	pstrings "clinreg/pkg/platform/strings"
)

// maxAge bounds the stored age; the value is semantically a small
// non-negative integer, not a full int.
const maxAge = 255

// Person carries the fields shared by every registered individual.
//
// Invariants:
//   - Name is non-empty
//   - ID is non-empty; identity is defined by ID alone (case-insensitive)
//   - Age is between 0 and 255
//   - BloodType is one of the 8 recognized types
//   - Phone, when present, is exactly 10 digits
//
// Address and phone are optional. Two persons with equal normalized IDs are
// the same logical entity regardless of every other field.
type Person struct {
	name      string
	age       int
	id        string
	bloodType BloodType
	address   string
	phone     string
}

// NewPerson validates all shared fields and returns a valid Person.
//
// Errors: CodeInvalidData on any field contract violation.
func NewPerson(name string, age int, id, bloodType, address, phone string) (Person, error) {
	var p Person
	if err := p.SetName(name); err != nil {
		return Person{}, err
	}
	if err := p.SetAge(age); err != nil {
		return Person{}, err
	}
	if err := p.setID(id); err != nil {
		return Person{}, err
	}
	if err := p.SetBloodType(bloodType); err != nil {
		return Person{}, err
	}
	p.SetAddress(address)
	if err := p.SetPhone(phone); err != nil {
		return Person{}, err
	}
	return p, nil
}

func (p *Person) Name() string         { return p.name }
func (p *Person) Age() int             { return p.age }
func (p *Person) ID() string           { return p.id }
func (p *Person) BloodType() BloodType { return p.bloodType }
func (p *Person) Address() string      { return p.address }
func (p *Person) Phone() string        { return p.phone }

// Key returns the normalized identity key used for lookups and equality.
func (p *Person) Key() string {
	return pstrings.NormalizeKey(p.id)
}

// EquivalentTo reports identity by ID alone, matched case-insensitively.
func (p *Person) EquivalentTo(other *Person) bool {
	if other == nil {
		return false
	}
	return p.Key() == other.Key()
}

func (p *Person) SetName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidData, "name must not be empty")
	}
	p.name = trimmed
	return nil
}

func (p *Person) SetAge(age int) error {
	if age < 0 {
		return dErrors.Newf(dErrors.CodeInvalidData, "age must not be negative, got %d", age)
	}
	if age > maxAge {
		return dErrors.Newf(dErrors.CodeInvalidData, "age must be at most %d, got %d", maxAge, age)
	}
	p.age = age
	return nil
}

// setID is construction-only: identity never changes after the fact.
func (p *Person) setID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidData, "id must not be empty")
	}
	p.id = trimmed
	return nil
}

func (p *Person) SetBloodType(bloodType string) error {
	parsed, err := ParseBloodType(bloodType)
	if err != nil {
		return err
	}
	p.bloodType = parsed
	return nil
}

func (p *Person) SetAddress(address string) {
	p.address = strings.TrimSpace(address)
}

func (p *Person) SetPhone(phone string) error {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		p.phone = ""
		return nil
	}
	if len(trimmed) != 10 || !allDigits(trimmed) {
		return dErrors.Newf(dErrors.CodeInvalidData, "phone must be 10 numeric digits, got %q", phone)
	}
	p.phone = trimmed
	return nil
}

// CheckInvariant re-validates the shared field invariants. It reports the
// first violation and never mutates state.
//
// Errors: CodeInvariantViolation naming the violated field.
func (p *Person) CheckInvariant() error {
	if msg := p.firstViolation(); msg != "" {
		return dErrors.New(dErrors.CodeInvariantViolation, msg)
	}
	return nil
}

func (p *Person) firstViolation() string {
	switch {
	case strings.TrimSpace(p.name) == "":
		return "person name is empty"
	case strings.TrimSpace(p.id) == "":
		return "person id is empty"
	case !p.bloodType.IsValid():
		return "person blood type is not one of the 8 recognized types"
	case p.age < 0 || p.age > maxAge:
		return "person age is out of range"
	case p.phone != "" && (len(p.phone) != 10 || !allDigits(p.phone)):
		return "person phone is not 10 numeric digits"
	}
	return ""
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
