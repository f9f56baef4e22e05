package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

type fakeQueue struct {
	err    error
	events []Event
}

func (q *fakeQueue) EnqueueAudit(ctx context.Context, ev Event) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, ev)
	return nil
}

type fakeWriter struct {
	events []Event
}

func (w *fakeWriter) Insert(ctx context.Context, ev Event) error {
	w.events = append(w.events, ev)
	return nil
}

func signedIn() context.Context {
	return shared.ContextWithProfile(context.Background(), shared.Profile{ID: "12", Username: "coord"})
}

func TestRecordEnqueuesWithActor(t *testing.T) {
	queue := &fakeQueue{}
	writer := &fakeWriter{}
	NewRecorder(queue, writer, nil).Record(signedIn(), Event{Action: ActionCreate, Entity: "users", EntityID: "5"})

	require.Len(t, queue.events, 1)
	assert.Empty(t, writer.events)
	ev := queue.events[0]
	assert.Equal(t, "12", ev.ActorID)
	assert.Equal(t, "coord", ev.Actor)
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.False(t, ev.At.IsZero())
}

func TestRecordFallsBackToWriter(t *testing.T) {
	queue := &fakeQueue{err: errors.New("redis down")}
	writer := &fakeWriter{}
	NewRecorder(queue, writer, nil).Record(signedIn(), Event{Action: ActionDelete, Entity: "teams", EntityID: "3"})
	require.Len(t, writer.events, 1)
	assert.Equal(t, ActionDelete, writer.events[0].Action)
}

func TestRecordWithoutSinksIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(nil, nil, nil).Record(context.Background(), Event{Action: ActionUpdate, Entity: "roles", EntityID: "1"})
		var r *Recorder
		r.Record(context.Background(), Event{})
	})
}

func TestDisabledStore(t *testing.T) {
	store := NewStore(nil)
	assert.False(t, store.Enabled())
	assert.ErrorIs(t, store.Insert(context.Background(), Event{}), ErrStoreDisabled)
	_, _, err := store.Recent(context.Background(), Filters{})
	assert.ErrorIs(t, err, ErrStoreDisabled)
}

func TestWhereClause(t *testing.T) {
	where, args := whereClause(Filters{Entity: "visits", Actor: " ana "})
	assert.Equal(t, " WHERE entity = $1 AND actor ILIKE '%' || $2 || '%'", where)
	assert.Equal(t, []any{"visits", "ana"}, args)

	where, args = whereClause(Filters{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}
