// Package audit appends one immutable record per mutating request: who acted,
// what they called, and a bounded snapshot of what went in and out. Domain
// packages never construct audit rows; the HTTP middleware feeds a completed
// operation descriptor into a Sink.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dispensaryhub/internal/observability"
	"dispensaryhub/internal/store"
)

// ActorTypeStaff is the only actor type today; the column exists so other
// actor classes (system jobs, integrations) can share the trail later.
const ActorTypeStaff = "STAFF"

// Event is one completed-operation descriptor. Payload is an opaque,
// already-bounded snapshot; the recorder does not interpret it.
type Event struct {
	ActorType  string
	ActorID    string
	EventType  string
	EntityType string
	EntityID   string
	Payload    []byte
}

// Sink receives completed-operation descriptors. The middleware depends on
// this, not on the store, so tests can capture events in memory.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Recorder is the durable Sink. Each event is its own transaction, written
// after the domain operation has already committed or failed: recording
// must never roll back the operation it observes.
type Recorder struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{
		db:     db,
		tracer: otel.Tracer("dispensaryhub/audit"),
	}
}

func (r *Recorder) Record(ctx context.Context, event Event) error {
	ctx, span := r.tracer.Start(ctx, "audit.record",
		trace.WithAttributes(
			attribute.String("audit.event_type", event.EventType),
			attribute.String("audit.entity_id", event.EntityID),
		),
	)
	defer span.End()

	now := store.UTCNow()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor_type, actor_id, event_type, entity_type, entity_id, event_data, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.NewString(), event.ActorType, event.ActorID, event.EventType,
		event.EntityType, event.EntityID, string(event.Payload), now, now)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	observability.AuditEventsRecorded.Inc()
	return nil
}
