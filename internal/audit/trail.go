// Package audit records registry mutations to an append-only flat file, one
// semicolon-delimited event per line. The trail is best effort: a write
// failure is logged and never fails the mutation that produced the event.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinreg/internal/platform/metrics"
)

// Actions recorded by the registry service.
const (
	ActionRegister   = "register"
	ActionDelete     = "delete"
	ActionConfirm    = "confirm"
	ActionCancel     = "cancel"
	ActionReschedule = "reschedule"
	ActionApprove    = "approve"
	ActionReject     = "reject"
)

// eventFields is the fixed field count of a serialized event:
// id;timestamp;action;entity;entityId;detail
const eventFields = 6

// Event is one recorded mutation. Detail is free text and must not contain
// semicolons or newlines; Record replaces them defensively.
type Event struct {
	ID       string
	At       time.Time
	Action   string
	Entity   string
	EntityID string
	Detail   string
}

// Trail appends events to the backing file. A nil *Trail is a valid no-op
// recorder, used when auditing is disabled.
type Trail struct {
	path    string
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New builds a trail over the given backing file. Logger falls back to
// slog.Default; metrics may be nil.
func New(path string, log *slog.Logger, m *metrics.Metrics) *Trail {
	if log == nil {
		log = slog.Default()
	}
	return &Trail{path: path, log: log, metrics: m, now: time.Now}
}

// WithClock overrides the event clock, for tests.
func (t *Trail) WithClock(now func() time.Time) *Trail {
	t.now = now
	return t
}

// Record appends one event line. Failures are logged, never returned.
func (t *Trail) Record(ctx context.Context, action, entity, entityID, detail string) {
	if t == nil {
		return
	}
	event := Event{
		ID:       uuid.NewString(),
		At:       t.now().UTC(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := t.append(event); err != nil {
		t.log.WarnContext(ctx, "audit event dropped",
			"action", action, "entity", entity, "id", entityID, "error", err)
		return
	}
	t.metrics.IncrementAuditEvents()
}

func (t *Trail) append(e Event) error {
	fields := []string{
		e.ID,
		e.At.Format(time.RFC3339),
		sanitize(e.Action),
		sanitize(e.Entity),
		sanitize(e.EntityID),
		sanitize(e.Detail),
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strings.Join(fields, ";") + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List reads the recorded events back in order. Malformed lines are skipped.
func (t *Trail) List(ctx context.Context) ([]Event, error) {
	if t == nil {
		return nil, nil
	}
	raw, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var events []Event
	for i, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != eventFields {
			t.log.WarnContext(ctx, "skipping audit line", "line", i+1)
			continue
		}
		at, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			t.log.WarnContext(ctx, "skipping audit line", "line", i+1, "error", err)
			continue
		}
		events = append(events, Event{
			ID:       fields[0],
			At:       at,
			Action:   fields[2],
			Entity:   fields[3],
			EntityID: fields[4],
			Detail:   fields[5],
		})
	}
	return events, nil
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, ";", ",")
	return strings.ReplaceAll(s, "\n", " ")
}
