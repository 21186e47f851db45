package domain

import (
	"strings"
	"time"

	"clinreg/internal/compat"
	dErrors "clinreg/pkg/domain-errors"
)

// TransplantStatus is the lifecycle state of a transplant.
type TransplantStatus string

const (
	TransplantPending  TransplantStatus = "pending"
	TransplantApproved TransplantStatus = "approved"
	TransplantRejected TransplantStatus = "rejected"
)

// ParseTransplantStatus constructs a status from external input.
//
// Errors: CodeInvalidData when the value is not a known status.
func ParseTransplantStatus(s string) (TransplantStatus, error) {
	status := TransplantStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidData, "unknown transplant status %q", s)
	}
	return status, nil
}

func (s TransplantStatus) IsValid() bool {
	switch s {
	case TransplantPending, TransplantApproved, TransplantRejected:
		return true
	}
	return false
}

func (s TransplantStatus) String() string { return string(s) }

// Transplant records an organ transfer from a donor to a receiving patient.
//
// Invariants:
//   - ID and organ type are non-empty; the organ type is whitelisted
//   - Donor and receiver are resolved, existing records
//   - When the donor declares an organ, the transplant organ matches it
//   - The donor's blood type can donate to the receiver's
//   - Date is set
//   - Status is pending, approved or rejected; rejected requires a reason
//
// The organ type is stored independently of the donor's declaration, so a
// transplant round-trips losslessly even if the donor record changes later.
type Transplant struct {
	id              string
	organType       string
	donor           *Donor
	receiver        *Patient
	status          TransplantStatus
	clinicalHistory string
	rejectionReason string
	date            time.Time
}

// NewTransplant validates all fields, including donor→receiver blood
// compatibility, and returns a pending transplant. Date is dd/MM/yyyy.
//
// Errors: CodeInvalidData on field contract violations; CodeDateInvalid when
// the date fails to parse; CodeBloodIncompatible when the donor cannot
// donate to the receiver.
func NewTransplant(id, organType string, donor *Donor, receiver *Patient, date string) (*Transplant, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidData, "transplant id must not be empty")
	}
	canonical, err := compat.CanonicalOrgan(organType)
	if err != nil {
		return nil, err
	}
	if donor == nil {
		return nil, dErrors.New(dErrors.CodeInvalidData, "transplant donor must not be nil")
	}
	if receiver == nil {
		return nil, dErrors.New(dErrors.CodeInvalidData, "transplant receiver must not be nil")
	}
	if donor.Organ() != "" && donor.Organ() != canonical {
		return nil, dErrors.Newf(dErrors.CodeInvalidData,
			"transplant organ %s does not match donor's declared %s", canonical, donor.Organ())
	}
	day, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeDateInvalid, "date %q does not match dd/MM/yyyy", date)
	}
	if !donor.BloodType().CanDonateTo(receiver.BloodType()) {
		return nil, dErrors.Newf(dErrors.CodeBloodIncompatible,
			"donor %s cannot donate to receiver %s", donor.BloodType(), receiver.BloodType())
	}
	return &Transplant{
		id:        trimmedID,
		organType: canonical,
		donor:     donor,
		receiver:  receiver,
		status:    TransplantPending,
		date:      day,
	}, nil
}

func (t *Transplant) ID() string               { return t.id }
func (t *Transplant) OrganType() string        { return t.organType }
func (t *Transplant) Donor() *Donor            { return t.donor }
func (t *Transplant) Receiver() *Patient       { return t.receiver }
func (t *Transplant) Status() TransplantStatus { return t.status }
func (t *Transplant) ClinicalHistory() string  { return t.clinicalHistory }
func (t *Transplant) RejectionReason() string  { return t.rejectionReason }
func (t *Transplant) Date() time.Time          { return t.date }

// DateString renders the date in wire format.
func (t *Transplant) DateString() string { return t.date.Format(DateLayout) }

func (t *Transplant) SetClinicalHistory(history string) {
	t.clinicalHistory = strings.TrimSpace(history)
}

// Approve moves a pending transplant to approved, a terminal state.
//
// Errors: CodeInvariantViolation when not pending.
func (t *Transplant) Approve() error {
	if t.status != TransplantPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot approve a %s transplant", t.status)
	}
	t.status = TransplantApproved
	return nil
}

// Reject moves a pending transplant to rejected, recording why. Rejected is
// terminal.
//
// Errors: CodeInvariantViolation when not pending; CodeInvalidData when the
// reason is empty.
func (t *Transplant) Reject(reason string) error {
	if t.status != TransplantPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot reject a %s transplant", t.status)
	}
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidData, "rejection reason must not be empty")
	}
	t.status = TransplantRejected
	t.rejectionReason = trimmed
	return nil
}

// CheckInvariant re-validates the transplant invariants, including blood
// compatibility against the current donor and receiver records, without
// mutating state.
//
// Errors: CodeInvariantViolation naming the first violated field;
// CodeBloodIncompatible when the donor can no longer donate to the receiver.
func (t *Transplant) CheckInvariant() error {
	switch {
	case strings.TrimSpace(t.id) == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "transplant id is empty")
	case !compat.ValidOrgan(t.organType):
		return dErrors.New(dErrors.CodeInvariantViolation, "transplant organ is not transplantable")
	case t.donor == nil:
		return dErrors.New(dErrors.CodeInvariantViolation, "transplant donor is not resolved")
	case t.receiver == nil:
		return dErrors.New(dErrors.CodeInvariantViolation, "transplant receiver is not resolved")
	case t.date.IsZero():
		return dErrors.New(dErrors.CodeInvariantViolation, "transplant date is not set")
	case !t.status.IsValid():
		return dErrors.New(dErrors.CodeInvariantViolation, "transplant status is not a lifecycle state")
	case t.status == TransplantRejected && t.rejectionReason == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "rejected transplant has no rejection reason")
	case t.donor.Organ() != "" && t.donor.Organ() != t.organType:
		return dErrors.New(dErrors.CodeInvariantViolation, "transplant organ does not match the donor's declaration")
	}
	if !t.donor.BloodType().CanDonateTo(t.receiver.BloodType()) {
		return dErrors.Newf(dErrors.CodeBloodIncompatible,
			"donor %s cannot donate to receiver %s", t.donor.BloodType(), t.receiver.BloodType())
	}
	return nil
}
