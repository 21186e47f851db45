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

// donorFields is the fixed field count of a serialized donor line:
// name;age;id;bloodType;address;phone;donationType;healthStatus;eligibility;organ
const donorFields = 10

// DonorStore persists donors to a semicolon-delimited flat file.
type DonorStore struct {
	path    string
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewDonorStore(path string, log *slog.Logger, m *metrics.Metrics) *DonorStore {
	if log == nil {
		log = slog.Default()
	}
	return &DonorStore{path: path, log: log, metrics: m}
}

// EncodeDonor renders one wire line for a donor. Eligibility is 1 or 0.
func EncodeDonor(d *domain.Donor) string {
	eligibility := "0"
	if d.Eligible() {
		eligibility = "1"
	}
	fields := []string{
		d.Name(),
		strconv.Itoa(d.Age()),
		d.ID(),
		d.BloodType().String(),
		d.Address(),
		d.Phone(),
		d.DonationType(),
		d.HealthStatus(),
		eligibility,
		d.Organ(),
	}
	return strings.Join(fields, ";")
}

// DecodeDonor parses one wire line back into a validated donor.
func DecodeDonor(line string) (*domain.Donor, error) {
	fields := strings.Split(line, ";")
	if len(fields) != donorFields {
		return nil, dErrors.Newf(dErrors.CodeInvalidData,
			"expected %d fields, got %d", donorFields, len(fields))
	}
	age, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidData, "unparseable age %q", fields[1])
	}
	var eligible bool
	switch strings.TrimSpace(fields[8]) {
	case "1":
		eligible = true
	case "0":
		eligible = false
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidData, "eligibility must be 1 or 0, got %q", fields[8])
	}
	return domain.NewDonor(fields[0], age, fields[2], fields[3], fields[4], fields[5],
		fields[6], fields[7], eligible, fields[9])
}

// Load reads the full collection. Malformed lines are skipped with a warning.
func (s *DonorStore) Load(ctx context.Context) ([]*domain.Donor, error) {
	lines, err := readLines(s.path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reading donor file")
	}
	donors := make([]*domain.Donor, 0, len(lines))
	for i, line := range lines {
		d, err := DecodeDonor(line)
		if err != nil {
			s.log.WarnContext(ctx, "skipping donor line",
				"file", s.path, "line", i+1, "error", err)
			s.metrics.IncrementSkipped(KindDonor)
			continue
		}
		donors = append(donors, d)
	}
	s.metrics.IncrementLoaded(KindDonor, len(donors))
	return donors, nil
}

// Save rewrites the backing file from the given collection.
func (s *DonorStore) Save(ctx context.Context, donors []*domain.Donor) error {
	lines := make([]string, 0, len(donors))
	for _, d := range donors {
		lines = append(lines, EncodeDonor(d))
	}
	if err := rewriteLines(s.path, lines); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "saving donor file")
	}
	s.metrics.IncrementSaved(KindDonor, len(donors))
	return nil
}

// Append adds one donor to the end of the file without a full rewrite.
func (s *DonorStore) Append(ctx context.Context, d *domain.Donor) error {
	if err := appendLine(s.path, EncodeDonor(d)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "appending donor")
	}
	s.metrics.IncrementSaved(KindDonor, 1)
	return nil
}

// FindByID scans the collection for a case-insensitive ID match.
//
// Errors: CodeNotFound (wrapping sentinel.ErrNotFound) when absent.
func (s *DonorStore) FindByID(ctx context.Context, id string) (*domain.Donor, error) {
	donors, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	key := pstrings.NormalizeKey(id)
	for _, d := range donors {
		if d.Key() == key {
			return d, nil
		}
	}
	return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "donor "+id)
}

// DeleteByID removes every record matching the ID and rewrites the file.
//
// Errors: CodeNotFound when nothing matched.
func (s *DonorStore) DeleteByID(ctx context.Context, id string) error {
	donors, err := s.Load(ctx)
	if err != nil {
		return err
	}
	key := pstrings.NormalizeKey(id)
	remaining := make([]*domain.Donor, 0, len(donors))
	for _, d := range donors {
		if d.Key() != key {
			remaining = append(remaining, d)
		}
	}
	if len(remaining) == len(donors) {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "donor "+id)
	}
	return s.Save(ctx, remaining)
}
