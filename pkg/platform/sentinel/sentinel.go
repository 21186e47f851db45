package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the registry service can translate them into coded domain
// errors without knowing which backing file produced them.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: no record with the requested ID exists in the store
// - ErrConflict: the record cannot change because others still reference it
//
// For validation errors (bad fields, broken invariants), use
// pkg/domain-errors directly.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
