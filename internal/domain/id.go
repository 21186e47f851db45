package domain

import "github.com/google/uuid"

// NewRecordID mints an identifier for callers that register a record without
// supplying one. Caller-supplied IDs are used verbatim; identity is always by
// normalized ID, however it was produced.
func NewRecordID() string {
	return uuid.NewString()
}
