package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clinreg/pkg/domain-errors"
)

// compatibilityTable enumerates, per donor type, the recipients that must be
// accepted. Every pair absent from a donor's row must be rejected, which
// gives the full 64-pair matrix below.
var compatibilityTable = map[string][]string{
	"O-":  {"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"},
	"O+":  {"A+", "B+", "AB+", "O+"},
	"A-":  {"A+", "A-", "AB+", "AB-"},
	"A+":  {"A+", "AB+"},
	"B-":  {"B+", "B-", "AB+", "AB-"},
	"B+":  {"B+", "AB+"},
	"AB-": {"AB+", "AB-"},
	"AB+": {"AB+"},
}

var allTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func TestBloodCompatible_FullMatrix(t *testing.T) {
	for donor, recipients := range compatibilityTable {
		allowed := make(map[string]bool, len(recipients))
		for _, r := range recipients {
			allowed[r] = true
		}
		for _, recipient := range allTypes {
			got, err := BloodCompatible(donor, recipient)
			require.NoError(t, err, "%s -> %s", donor, recipient)
			assert.Equal(t, allowed[recipient], got, "%s -> %s", donor, recipient)
		}
	}
}

func TestBloodCompatible_NormalizesCase(t *testing.T) {
	got, err := BloodCompatible("o-", " ab+ ")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestBloodCompatible_RejectsUnknownTypes(t *testing.T) {
	t.Run("unknown donor", func(t *testing.T) {
		_, err := BloodCompatible("C+", "A+")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidData))
	})

	t.Run("unknown recipient", func(t *testing.T) {
		_, err := BloodCompatible("A+", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidData))
	})
}

func TestNormalizeBloodType(t *testing.T) {
	normalized, err := NormalizeBloodType(" ab- ")
	require.NoError(t, err)
	assert.Equal(t, "AB-", normalized)

	_, err = NormalizeBloodType("AB")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidData))
}
