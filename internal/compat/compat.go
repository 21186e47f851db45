// Package compat implements the donor/recipient compatibility rules: ABO/Rh
// blood-type matching and the organ whitelist. Functions are pure and operate
// on primitive strings so the package stays free of entity dependencies.
package compat

import (
	"strings"

	dErrors "clinreg/pkg/domain-errors"
)

// Blood type constants in canonical (uppercase) form.
const (
	BloodAPos  = "A+"
	BloodANeg  = "A-"
	BloodBPos  = "B+"
	BloodBNeg  = "B-"
	BloodABPos = "AB+"
	BloodABNeg = "AB-"
	BloodOPos  = "O+"
	BloodONeg  = "O-"
)

// validBloodTypes is the single source of truth for the 8 recognized types.
var validBloodTypes = map[string]bool{
	BloodAPos:  true,
	BloodANeg:  true,
	BloodBPos:  true,
	BloodBNeg:  true,
	BloodABPos: true,
	BloodABNeg: true,
	BloodOPos:  true,
	BloodONeg:  true,
}

// donorCompatibility maps a donor blood type to the set of recipient types it
// can donate to. Standard ABO/Rh donation table; keep in sync with the
// medical rules, not with any particular caller.
var donorCompatibility = map[string][]string{
	BloodONeg:  {BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg},
	BloodOPos:  {BloodAPos, BloodBPos, BloodABPos, BloodOPos},
	BloodANeg:  {BloodAPos, BloodANeg, BloodABPos, BloodABNeg},
	BloodAPos:  {BloodAPos, BloodABPos},
	BloodBNeg:  {BloodBPos, BloodBNeg, BloodABPos, BloodABNeg},
	BloodBPos:  {BloodBPos, BloodABPos},
	BloodABNeg: {BloodABPos, BloodABNeg},
	BloodABPos: {BloodABPos},
}

// NormalizeBloodType uppercases and validates a blood-type string.
//
// Errors: CodeInvalidData when the value is empty or not one of the 8
// recognized types.
func NormalizeBloodType(s string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == "" {
		return "", dErrors.New(dErrors.CodeInvalidData, "blood type must not be empty")
	}
	if !validBloodTypes[normalized] {
		return "", dErrors.Newf(dErrors.CodeInvalidData, "unrecognized blood type %q", s)
	}
	return normalized, nil
}

// BloodCompatible reports whether a donor of the first type can donate to a
// recipient of the second. Both inputs are validated first: an unrecognized
// type is an explicit error, never a silent false.
func BloodCompatible(donor, recipient string) (bool, error) {
	d, err := NormalizeBloodType(donor)
	if err != nil {
		return false, err
	}
	r, err := NormalizeBloodType(recipient)
	if err != nil {
		return false, err
	}
	for _, compatible := range donorCompatibility[d] {
		if compatible == r {
			return true, nil
		}
	}
	return false, nil
}
