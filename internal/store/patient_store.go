package store

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"clinreg/internal/domain"
	"clinreg/internal/platform/metrics"
	dErrors "clinreg/pkg/domain-errors"
	"clinreg/pkg/platform/sentinel"
	pstrings "clinreg/pkg/platform/strings"
)

// patientFields is the fixed field count of a serialized patient line:
// name;age;id;bloodType;address;phone;weight;height;allergies
const patientFields = 9

// PatientStore persists patients to a semicolon-delimited flat file.
type PatientStore struct {
	path    string
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewPatientStore builds a store over the given backing file. Logger falls
// back to slog.Default; metrics may be nil.
func NewPatientStore(path string, log *slog.Logger, m *metrics.Metrics) *PatientStore {
	if log == nil {
		log = slog.Default()
	}
	return &PatientStore{path: path, log: log, metrics: m}
}

// EncodePatient renders one wire line for a patient.
func EncodePatient(p *domain.Patient) string {
	fields := []string{
		p.Name(),
		strconv.Itoa(p.Age()),
		p.ID(),
		p.BloodType().String(),
		p.Address(),
		p.Phone(),
		formatFloat(p.Weight()),
		formatFloat(p.Height()),
		strings.Join(p.Allergies(), ","),
	}
	return strings.Join(fields, ";")
}

// DecodePatient parses one wire line back into a validated patient.
func DecodePatient(line string) (*domain.Patient, error) {
	fields := strings.Split(line, ";")
	if len(fields) != patientFields {
		return nil, dErrors.Newf(dErrors.CodeInvalidData,
			"expected %d fields, got %d", patientFields, len(fields))
	}
	age, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidData, "unparseable age %q", fields[1])
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidData, "unparseable weight %q", fields[6])
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(fields[7]), 64)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidData, "unparseable height %q", fields[7])
	}
	var allergies []string
	if fields[8] != "" {
		allergies = strings.Split(fields[8], ",")
	}
	return domain.NewPatient(fields[0], age, fields[2], fields[3], fields[4], fields[5], weight, height, allergies)
}

// Load reads the full collection. Malformed lines are skipped with a warning.
func (s *PatientStore) Load(ctx context.Context) ([]*domain.Patient, error) {
	lines, err := readLines(s.path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reading patient file")
	}
	patients := make([]*domain.Patient, 0, len(lines))
	for i, line := range lines {
		p, err := DecodePatient(line)
		if err != nil {
			s.log.WarnContext(ctx, "skipping patient line",
				"file", s.path, "line", i+1, "error", err)
			s.metrics.IncrementSkipped(KindPatient)
			continue
		}
		patients = append(patients, p)
	}
	s.metrics.IncrementLoaded(KindPatient, len(patients))
	return patients, nil
}

// Save rewrites the backing file from the given collection.
func (s *PatientStore) Save(ctx context.Context, patients []*domain.Patient) error {
	lines := make([]string, 0, len(patients))
	for _, p := range patients {
		lines = append(lines, EncodePatient(p))
	}
	if err := rewriteLines(s.path, lines); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "saving patient file")
	}
	s.metrics.IncrementSaved(KindPatient, len(patients))
	return nil
}

// Append adds one patient to the end of the file without a full rewrite.
func (s *PatientStore) Append(ctx context.Context, p *domain.Patient) error {
	if err := appendLine(s.path, EncodePatient(p)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "appending patient")
	}
	s.metrics.IncrementSaved(KindPatient, 1)
	return nil
}

// FindByID scans the collection for a case-insensitive ID match.
//
// Errors: CodeNotFound (wrapping sentinel.ErrNotFound) when absent.
func (s *PatientStore) FindByID(ctx context.Context, id string) (*domain.Patient, error) {
	patients, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	key := pstrings.NormalizeKey(id)
	for _, p := range patients {
		if p.Key() == key {
			return p, nil
		}
	}
	return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "patient "+id)
}

// DeleteByID removes every record matching the ID and rewrites the file.
//
// Errors: CodeNotFound when nothing matched.
func (s *PatientStore) DeleteByID(ctx context.Context, id string) error {
	patients, err := s.Load(ctx)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)
	remaining := make([]*domain.Patient, 0, len(patients))
	for _, p := range patients {
		if p.Key() != key {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == len(patients) {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "patient "+id)
	}
	return s.Save(ctx, remaining)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
