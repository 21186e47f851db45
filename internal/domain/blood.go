package domain

import (
	"clinreg/internal/compat"
)

// BloodType is one of the 8 ABO/Rh blood types in canonical uppercase form.
//
// Usage: construct via ParseBloodType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type BloodType string

// ParseBloodType constructs a BloodType from external input, folding case.
//
// Errors: CodeInvalidData when the value is empty or not one of the 8 types.
func ParseBloodType(s string) (BloodType, error) {
	normalized, err := compat.NormalizeBloodType(s)
	if err != nil {
		return "", err
	}
	return BloodType(normalized), nil
}

// IsValid checks that the value is one of the 8 types in canonical form.
func (b BloodType) IsValid() bool {
	normalized, err := compat.NormalizeBloodType(string(b))
	return err == nil && normalized == string(b)
}

// CanDonateTo reports ABO/Rh donation compatibility toward a recipient type.
// Both types are valid by construction, so the rule lookup cannot fail.
func (b BloodType) CanDonateTo(recipient BloodType) bool {
	ok, err := compat.BloodCompatible(string(b), string(recipient))
	if err != nil {
		return false
	}
	return ok
}

// String returns the canonical representation.
func (b BloodType) String() string {
	return string(b)
}
