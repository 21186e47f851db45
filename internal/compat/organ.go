package compat

import (
	"strings"

	dErrors "clinreg/pkg/domain-errors"
)

// organWhitelist lists the transplantable organs the registry accepts, in
// canonical spelling. Matching is case- and accent-sensitive only on the
// canonical form; lookup folds case.
var organWhitelist = []string{
	"Riñón",
	"Hígado",
	"Corazón",
	"Pulmón",
	"Páncreas",
	"Córnea",
	"Médula ósea",
	"Piel",
}

// Organs returns a copy of the whitelist in declaration order.
func Organs() []string {
	out := make([]string, len(organWhitelist))
	copy(out, organWhitelist)
	return out
}

// ValidOrgan reports whitelist membership, folding case and surrounding
// whitespace.
func ValidOrgan(name string) bool {
	_, err := CanonicalOrgan(name)
	return err == nil
}

// CanonicalOrgan resolves a caller-supplied organ name to its canonical
// whitelist spelling.
//
// Errors: CodeInvalidData when the name is empty or not whitelisted.
func CanonicalOrgan(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidData, "organ must not be empty")
	}
	for _, organ := range organWhitelist {
		if strings.EqualFold(organ, trimmed) {
			return organ, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeInvalidData, "organ %q is not transplantable", name)
}
