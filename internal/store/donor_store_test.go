package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinreg/internal/domain"
	dErrors "clinreg/pkg/domain-errors"
)

func newDonorStore(t *testing.T) (*DonorStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Donante.txt")
	log, m := testDeps(t)
	return NewDonorStore(path, log, m), path
}

func organDonor(t *testing.T, id string) *domain.Donor {
	t.Helper()
	d, err := domain.NewDonor("Lucía Mera", 29, id, "O-", "Av 3 #45-10", "3201112233",
		domain.DonationOrgans, "Sana", true, "Riñón")
	require.NoError(t, err)
	return d
}

func TestDonorStore_RoundTrip(t *testing.T) {
	store, _ := newDonorStore(t)
	ctx := context.Background()

	blood, err := domain.NewDonor("Juan Paz", 52, "D002", "A+", "", "",
		domain.DonationBlood, "Hipertensión controlada", false, "")
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, []*domain.Donor{organDonor(t, "D001"), blood}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "Riñón", loaded[0].Organ())
	assert.True(t, loaded[0].Eligible())
	assert.False(t, loaded[1].Eligible())
	assert.Empty(t, loaded[1].Organ())

	for i, d := range loaded {
		assert.Equal(t, EncodeDonor(loaded[i]), EncodeDonor(d))
	}
}

func TestDonorStore_SerializationIsIdempotent(t *testing.T) {
	first := EncodeDonor(organDonor(t, "D001"))
	decoded, err := DecodeDonor(first)
	require.NoError(t, err)
	assert.Equal(t, first, EncodeDonor(decoded))
}

func TestDecodeDonor_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"wrong field count", "Lucía;29;D001;O-"},
		{"unparseable age", "Lucía;abc;D001;O-;;;Sangre;Sana;1;"},
		{"bad eligibility flag", "Lucía;29;D001;O-;;;Sangre;Sana;yes;"},
		{"underage donor", "Niño;15;D001;O-;;;Sangre;Sana;1;"},
		{"unknown organ", "Lucía;29;D001;O-;;;Órganos;Sana;1;Apéndice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDonor(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestDonorStore_LoadSkipsBadLines(t *testing.T) {
	store, path := newDonorStore(t)
	ctx := context.Background()

	content := EncodeDonor(organDonor(t, "D001")) + "\n" +
		"Niño;15;D002;O-;;;Sangre;Sana;1;\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1, "an underage line is dropped, not fatal")
	assert.Equal(t, "D001", loaded[0].ID())
}

func TestDonorStore_DeleteByID(t *testing.T) {
	store, _ := newDonorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, organDonor(t, "D001")))
	require.NoError(t, store.Append(ctx, organDonor(t, "D002")))

	t.Run("missing id fails with not found", func(t *testing.T) {
		err := store.DeleteByID(ctx, "D404")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("existing id removes exactly one record", func(t *testing.T) {
		require.NoError(t, store.DeleteByID(ctx, "d001"))
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "D002", loaded[0].ID())
	})
}
