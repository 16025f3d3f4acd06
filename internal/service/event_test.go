package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/goldendays/internal/apperror"
	"github.com/sakif/goldendays/internal/live"
	"github.com/sakif/goldendays/internal/model"
	sqliteRepo "github.com/sakif/goldendays/internal/repository/sqlite"
	"github.com/sakif/goldendays/internal/service"
)

// newTestServices wires the real stack — bus, in-memory SQLite, services —
// exactly as main.go does. The facade's value is in how the pieces interact,
// so these tests use the genuine storage engine rather than a fake.
func newTestServices(t *testing.T) (*service.EventService, *service.MediaService) {
	t.Helper()
	return newTestServicesAt(t, ":memory:")
}

// newTestServicesAt is newTestServices with a caller-chosen database path.
// Tests that need genuine connection-pool concurrency pass a temp file,
// since ":memory:" is pinned to a single connection.
func newTestServicesAt(t *testing.T, dbPath string) (*service.EventService, *service.MediaService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := live.NewBus()

	db, err := sqliteRepo.New(dbPath, bus)
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })

	return service.NewEventService(db, bus, logger),
		service.NewMediaService(db, bus, logger)
}

// nextSnapshot receives one snapshot or fails the test after a deadline.
func nextSnapshot[T any](t *testing.T, sub *live.Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.Updates():
		require.True(t, ok, "updates channel closed while waiting for a snapshot")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
	}
	panic("unreachable")
}

// waitForSnapshot consumes snapshots until one satisfies the predicate.
// Deliveries coalesce, so tests must wait for a STATE, not count emissions.
func waitForSnapshot[T any](t *testing.T, sub *live.Subscription[T], match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-sub.Updates():
			require.True(t, ok, "updates channel closed while waiting for a snapshot")
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching snapshot")
		}
	}
}

func TestEventService_AddAndGet(t *testing.T) {
	events, _ := newTestServices(t)
	ctx := context.Background()

	date := time.Date(2024, 7, 4, 18, 0, 0, 0, time.UTC)
	id, err := events.Add(ctx, "Fireworks", &date, "by the river")
	require.NoError(t, err)
	assert.Positive(t, id)

	found, err := events.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fireworks", found.Name)
	assert.Equal(t, "by the river", found.Description)
	require.NotNil(t, found.Date)
	assert.True(t, found.Date.Equal(date))
}

func TestEventService_UpdateMissing(t *testing.T) {
	events, _ := newTestServices(t)

	err := events.Update(context.Background(), model.Event{ID: 99, Name: "ghost"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEventService_WatchAll(t *testing.T) {
	events, _ := newTestServices(t)
	ctx := context.Background()

	sub, err := events.WatchAll()
	require.NoError(t, err)
	defer sub.Cancel()

	// Initial snapshot: the (empty) current state, before any mutation
	initial := nextSnapshot(t, sub)
	assert.Empty(t, initial)

	id, err := events.Add(ctx, "Housewarming", nil, "")
	require.NoError(t, err)

	// The mutation must reach the subscriber without polling
	snapshot := waitForSnapshot(t, sub, func(evs []model.Event) bool {
		return len(evs) == 1
	})
	assert.Equal(t, id, snapshot[0].ID)
	assert.Equal(t, "Housewarming", snapshot[0].Name)
}

func TestEventService_WatchByID_NilOnDelete(t *testing.T) {
	events, _ := newTestServices(t)
	ctx := context.Background()

	id, err := events.Add(ctx, "Pop-up dinner", nil, "")
	require.NoError(t, err)

	sub, err := events.WatchByID(id)
	require.NoError(t, err)
	defer sub.Cancel()

	initial := nextSnapshot(t, sub)
	require.NotNil(t, initial)
	assert.Equal(t, "Pop-up dinner", initial.Name)

	require.NoError(t, events.Delete(ctx, id))

	// A deleted target is delivered as a nil snapshot, not an error or a
	// dead stream — the open detail screen's cue to close itself
	waitForSnapshot(t, sub, func(e *model.Event) bool { return e == nil })
}

func TestEventService_WatchSearch_Reevaluates(t *testing.T) {
	events, _ := newTestServices(t)
	ctx := context.Background()

	_, err := events.Add(ctx, "Graduation", nil, "")
	require.NoError(t, err)

	sub, err := events.WatchSearch("day")
	require.NoError(t, err)
	defer sub.Cancel()

	initial := nextSnapshot(t, sub)
	assert.Empty(t, initial, "no current event matches the needle")

	// A new matching event must enter the standing result set
	_, err = events.Add(ctx, "Birthday party", nil, "")
	require.NoError(t, err)

	snapshot := waitForSnapshot(t, sub, func(evs []model.Event) bool {
		return len(evs) == 1
	})
	assert.Equal(t, "Birthday party", snapshot[0].Name)
}

func TestEventService_WatchByID_MissingStartsNil(t *testing.T) {
	events, _ := newTestServices(t)

	// Watching an id that doesn't exist (yet) is legal: the initial
	// snapshot is nil and the stream stays alive
	sub, err := events.WatchByID(424242)
	require.NoError(t, err)
	defer sub.Cancel()

	initial := nextSnapshot(t, sub)
	assert.Nil(t, initial)
}
