package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"clinreg/internal/domain"
	"clinreg/internal/platform/logger"
	"clinreg/internal/platform/metrics"
	dErrors "clinreg/pkg/domain-errors"
	"clinreg/pkg/platform/sentinel"
)

type PatientStoreSuite struct {
	suite.Suite
	path  string
	store *PatientStore
}

func (s *PatientStoreSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "Paciente.txt")
	log := logger.NewWithWriter(io.Discard, "text", "error")
	s.store = NewPatientStore(s.path, log, metrics.New(prometheus.NewRegistry()))
}

func (s *PatientStoreSuite) newPatient(id string) *domain.Patient {
	p, err := domain.NewPatient("Carlos Ruiz", 45, id, "B+", "Cra 7 #12-40", "3109876543",
		70.5, 1.75, []string{"Penicilina", "Polen"})
	s.Require().NoError(err)
	return p
}

func (s *PatientStoreSuite) TestLoadMissingFileIsEmpty() {
	patients, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Empty(patients)
}

func (s *PatientStoreSuite) TestSaveThenLoadRoundTrips() {
	original := []*domain.Patient{s.newPatient("P001"), s.newPatient("P002")}
	s.Require().NoError(s.store.Save(context.Background(), original))

	loaded, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Require().Len(loaded, 2)
	for i := range original {
		s.Equal(EncodePatient(original[i]), EncodePatient(loaded[i]))
	}
}

func (s *PatientStoreSuite) TestAppendMatchesLoad() {
	s.Require().NoError(s.store.Append(context.Background(), s.newPatient("P001")))
	s.Require().NoError(s.store.Append(context.Background(), s.newPatient("P002")))

	loaded, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Len(loaded, 2)
	s.Equal("P001", loaded[0].ID())
	s.Equal("P002", loaded[1].ID())
}

func (s *PatientStoreSuite) TestMalformedLinesAreSkipped() {
	good := EncodePatient(s.newPatient("P001"))
	content := "esto no es un paciente\n" +
		good + "\n" +
		"Nombre;no-un-numero;P009;B+;;;70;1.7;\n"
	s.Require().NoError(os.WriteFile(s.path, []byte(content), 0o644))

	loaded, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Require().Len(loaded, 1, "corrupt records must not block valid ones")
	s.Equal("P001", loaded[0].ID())
}

func (s *PatientStoreSuite) TestFindByIDIsCaseInsensitive() {
	s.Require().NoError(s.store.Append(context.Background(), s.newPatient("P001")))

	found, err := s.store.FindByID(context.Background(), "p001")
	s.Require().NoError(err)
	s.Equal("P001", found.ID())
}

func (s *PatientStoreSuite) TestFindByIDNotFound() {
	_, err := s.store.FindByID(context.Background(), "P404")
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PatientStoreSuite) TestDeleteByIDRemovesExactlyOne() {
	s.Require().NoError(s.store.Append(context.Background(), s.newPatient("P001")))
	s.Require().NoError(s.store.Append(context.Background(), s.newPatient("P002")))

	s.Require().NoError(s.store.DeleteByID(context.Background(), "P001"))

	loaded, err := s.store.Load(context.Background())
	s.Require().NoError(err)
	s.Require().Len(loaded, 1)
	s.Equal("P002", loaded[0].ID())
}

func (s *PatientStoreSuite) TestDeleteByIDMissingFails() {
	s.Require().NoError(s.store.Append(context.Background(), s.newPatient("P001")))
	err := s.store.DeleteByID(context.Background(), "P404")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestPatientStoreSuite(t *testing.T) {
	suite.Run(t, new(PatientStoreSuite))
}

func TestPatientSerializationIsIdempotent(t *testing.T) {
	p, err := domain.NewPatient("Ana Gómez", 34, "P010", "ab-", "  Calle 10  ", "3001234567",
		62.3, 1.6, []string{" Polen ", "Polen", "Látex"})
	require.NoError(t, err)

	first := EncodePatient(p)
	decoded, err := DecodePatient(first)
	require.NoError(t, err)
	assert.Equal(t, first, EncodePatient(decoded),
		"serialize(deserialize(serialize(e))) == serialize(e)")
}
