package store

import (
	"context"
	"log/slog"
	"strings"

	"clinreg/internal/domain"
	"clinreg/internal/platform/metrics"
	dErrors "clinreg/pkg/domain-errors"
	"clinreg/pkg/platform/sentinel"
	pstrings "clinreg/pkg/platform/strings"
)

// Transplant lines are pipe-delimited key:value pairs, e.g.
//
//	Paciente: P001 | Donante: D001 | Órgano: Riñón | Estado: pending | ID: T001 | Fecha: 10/04/2026
//
// The organ is stored on the record itself rather than reconstructed from
// the donor, so the round trip stays lossless when the donor record changes.
// Motivo (rejection reason) and Historia (clinical history) appear only when
// non-empty.
const (
	keyReceiver = "Paciente"
	keyDonor    = "Donante"
	keyOrgan    = "Órgano"
	keyStatus   = "Estado"
	keyID       = "ID"
	keyDate     = "Fecha"
	keyReason   = "Motivo"
	keyHistory  = "Historia"
	pairSep     = " | "
	keyValueSep = ": "
)

// TransplantStore persists transplants to a pipe-delimited flat file. Load
// resolves donor and receiver references against indexes the caller provides.
type TransplantStore struct {
	path    string
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewTransplantStore(path string, log *slog.Logger, m *metrics.Metrics) *TransplantStore {
	if log == nil {
		log = slog.Default()
	}
	return &TransplantStore{path: path, log: log, metrics: m}
}

// EncodeTransplant renders one wire line for a transplant.
func EncodeTransplant(t *domain.Transplant) string {
	pairs := []string{
		keyReceiver + keyValueSep + t.Receiver().ID(),
		keyDonor + keyValueSep + t.Donor().ID(),
		keyOrgan + keyValueSep + t.OrganType(),
		keyStatus + keyValueSep + t.Status().String(),
		keyID + keyValueSep + t.ID(),
		keyDate + keyValueSep + t.DateString(),
	}
	if t.RejectionReason() != "" {
		pairs = append(pairs, keyReason+keyValueSep+t.RejectionReason())
	}
	if t.ClinicalHistory() != "" {
		pairs = append(pairs, keyHistory+keyValueSep+t.ClinicalHistory())
	}
	return strings.Join(pairs, pairSep)
}

// DecodeTransplant parses one wire line, resolving donor and receiver
// against the given indexes (normalized ID -> record).
//
// Errors: CodeInvalidData on malformed pairs; CodeNotFound on unresolved
// references; CodeBloodIncompatible when the stored pair no longer passes
// the compatibility rules.
func DecodeTransplant(line string, donors map[string]*domain.Donor, patients map[string]*domain.Patient) (*domain.Transplant, error) {
	pairs, err := parsePairs(line)
	if err != nil {
		return nil, err
	}
	for _, required := range []string{keyReceiver, keyDonor, keyOrgan, keyStatus, keyID, keyDate} {
		if pairs[required] == "" {
			return nil, dErrors.Newf(dErrors.CodeInvalidData, "missing %s pair", required)
		}
	}
	donor, ok := donors[pstrings.NormalizeKey(pairs[keyDonor])]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "donor %s not registered", pairs[keyDonor])
	}
	receiver, ok := patients[pstrings.NormalizeKey(pairs[keyReceiver])]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "patient %s not registered", pairs[keyReceiver])
	}
	t, err := domain.NewTransplant(pairs[keyID], pairs[keyOrgan], donor, receiver, pairs[keyDate])
	if err != nil {
		return nil, err
	}
	t.SetClinicalHistory(pairs[keyHistory])
	status, err := domain.ParseTransplantStatus(pairs[keyStatus])
	if err != nil {
		return nil, err
	}
	switch status {
	case domain.TransplantApproved:
		err = t.Approve()
	case domain.TransplantRejected:
		err = t.Reject(pairs[keyReason])
	default:
		// already pending
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parsePairs(line string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, part := range strings.Split(line, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, ":")
		if !found {
			return nil, dErrors.Newf(dErrors.CodeInvalidData, "malformed pair %q", part)
		}
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return pairs, nil
}

// Load reads the full collection, resolving references against the given
// indexes. Malformed or unresolvable lines are skipped with a warning.
func (s *TransplantStore) Load(ctx context.Context, donors map[string]*domain.Donor, patients map[string]*domain.Patient) ([]*domain.Transplant, error) {
	lines, err := readLines(s.path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reading transplant file")
	}
	transplants := make([]*domain.Transplant, 0, len(lines))
	for i, line := range lines {
		t, err := DecodeTransplant(line, donors, patients)
		if err != nil {
			s.log.WarnContext(ctx, "skipping transplant line",
				"file", s.path, "line", i+1, "error", err)
			s.metrics.IncrementSkipped(KindTransplant)
			continue
		}
		transplants = append(transplants, t)
	}
	s.metrics.IncrementLoaded(KindTransplant, len(transplants))
	return transplants, nil
}

// Save rewrites the backing file from the given collection.
func (s *TransplantStore) Save(ctx context.Context, transplants []*domain.Transplant) error {
	lines := make([]string, 0, len(transplants))
	for _, t := range transplants {
		lines = append(lines, EncodeTransplant(t))
	}
	if err := rewriteLines(s.path, lines); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "saving transplant file")
	}
	s.metrics.IncrementSaved(KindTransplant, len(transplants))
	return nil
}

// Append adds one transplant to the end of the file without a full rewrite.
func (s *TransplantStore) Append(ctx context.Context, t *domain.Transplant) error {
	if err := appendLine(s.path, EncodeTransplant(t)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "appending transplant")
	}
	s.metrics.IncrementSaved(KindTransplant, 1)
	return nil
}

// FindByID scans the collection for a case-insensitive ID match.
//
// Errors: CodeNotFound (wrapping sentinel.ErrNotFound) when absent.
func (s *TransplantStore) FindByID(ctx context.Context, id string, donors map[string]*domain.Donor, patients map[string]*domain.Patient) (*domain.Transplant, error) {
	transplants, err := s.Load(ctx, donors, patients)
	if err != nil {
		return nil, err
	}
	key := pstrings.NormalizeKey(id)
	for _, t := range transplants {
		if pstrings.NormalizeKey(t.ID()) == key {
			return t, nil
		}
	}
	return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "transplant "+id)
}

// DeleteByID removes every record matching the ID and rewrites the file.
//
// Errors: CodeNotFound when nothing matched.
func (s *TransplantStore) DeleteByID(ctx context.Context, id string, donors map[string]*domain.Donor, patients map[string]*domain.Patient) error {
	transplants, err := s.Load(ctx, donors, patients)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)
	remaining := make([]*domain.Transplant, 0, len(transplants))
	for _, t := range transplants {
		if pstrings.NormalizeKey(t.ID()) != key {
			remaining = append(remaining, t)
		}
	}
	if len(remaining) == len(transplants) {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "transplant "+id)
	}
	return s.Save(ctx, remaining)
}
