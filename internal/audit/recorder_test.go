package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispensaryhub/internal/store"
)

func TestRecorderPersistsEvent(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, store.Migrate(ctx, db))

	recorder := NewRecorder(db)
	err = recorder.Record(ctx, Event{
		ActorType:  ActorTypeStaff,
		ActorID:    "staff-42",
		EventType:  "HTTP_POST",
		EntityType: "endpoint",
		EntityID:   "/orders",
		Payload:    []byte(`{"status_code":201}`),
	})
	require.NoError(t, err)

	var actorID, eventType, entityID, data string
	err = db.QueryRowContext(ctx, `
		SELECT actor_id, event_type, entity_id, event_data FROM audit_events
	`).Scan(&actorID, &eventType, &entityID, &data)
	require.NoError(t, err)

	assert.Equal(t, "staff-42", actorID)
	assert.Equal(t, "HTTP_POST", eventType)
	assert.Equal(t, "/orders", entityID)
	assert.JSONEq(t, `{"status_code":201}`, data)
}
