package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBloodType(t *testing.T) {
	parsed, err := ParseBloodType(" ab+ ")
	require.NoError(t, err)
	assert.Equal(t, BloodType("AB+"), parsed)
	assert.True(t, parsed.IsValid())

	_, err = ParseBloodType("X-")
	assert.Error(t, err)

	assert.False(t, BloodType("ab+").IsValid(), "non-canonical casing is not valid")
}

func TestBloodType_CanDonateTo(t *testing.T) {
	assert.True(t, BloodType("O-").CanDonateTo("AB+"))
	assert.False(t, BloodType("AB+").CanDonateTo("O-"))
}
