// Package strings provides normalization helpers shared by the entity model
// and the record stores.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved. Used to normalize
// caller-supplied allergy lists before they reach a Patient.
//
// Example:
//
//	DedupeAndTrim([]string{"  Penicilina ", "Polen", "Penicilina", ""})
//	// Returns: []string{"Penicilina", "Polen"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// NormalizeKey folds an entity ID for case-insensitive identity comparison
// and map lookups. IDs are stored as given but matched normalized.
func NormalizeKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
