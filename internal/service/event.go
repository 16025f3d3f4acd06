// Package service is the repository facade: the one typed surface through
// which collaborators (the HTTP layer here, view-models in a UI) reach the
// store. It composes the storage engine and the reactive query layer and
// hides transaction boundaries and subscription plumbing from callers.
//
// THE DEPENDENCY CHAIN:
//   main.go creates:  Bus → sqlite.DB → services → handlers
//   At runtime:       handler calls service calls repository calls SQLite
//
// The services take repository INTERFACES, not *sqlite.DB — tests inject
// in-memory fakes, and nothing here imports the sqlite package.
//
// Deliberately, the facade adds no business rules of its own beyond media
// classification: event name validation, for instance, is the caller's
// contract (the store accepts what it is given), so it lives at the HTTP
// edge just as it lived in the original UI.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/goldendays/internal/live"
	"github.com/sakif/goldendays/internal/model"
	"github.com/sakif/goldendays/internal/repository"
)

// EventService exposes event CRUD plus live queries over event state.
type EventService struct {
	repo   repository.EventRepository
	bus    *live.Bus
	logger *slog.Logger
}

// NewEventService creates an EventService. The bus must be the same one the
// repository publishes to, or live queries will never wake up.
func NewEventService(repo repository.EventRepository, bus *live.Bus, logger *slog.Logger) *EventService {
	return &EventService{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Add persists a new event and returns its assigned id. A nil date means
// "no date set" and round-trips as such.
func (s *EventService) Add(ctx context.Context, name string, date *time.Time, description string) (int64, error) {
	event := &model.Event{
		Name:        name,
		Date:        date,
		Description: description,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.logger.Error("failed to add event",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return 0, err
	}

	s.logger.Info("event added",
		slog.Int64("id", event.ID),
		slog.String("name", event.Name),
	)
	return event.ID, nil
}

// Update replaces the full event record. The caller submits the complete
// record — there is no partial-field update anywhere in the stack.
// Returns apperror.ErrNotFound if no event has that id, so an edit of a
// just-deleted event is reported rather than silently discarded.
func (s *EventService) Update(ctx context.Context, event model.Event) error {
	if err := s.repo.UpdateEvent(ctx, &event); err != nil {
		return err
	}

	s.logger.Info("event updated",
		slog.Int64("id", event.ID),
		slog.String("name", event.Name),
	)
	return nil
}

// Delete removes the event and all media attached to it, atomically.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.logger.Info("event deleted", slog.Int64("id", id))
	return nil
}

// Get is a one-shot point read. Screens that stay open use WatchByID instead.
func (s *EventService) Get(ctx context.Context, id int64) (*model.Event, error) {
	return s.repo.GetEventByID(ctx, id)
}

// List is a one-shot read of all events in insertion order.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.repo.ListEvents(ctx)
}

// Search is a one-shot substring search over event names (case policy is
// documented on the repository method). An empty needle returns everything.
func (s *EventService) Search(ctx context.Context, substring string) ([]model.Event, error) {
	return s.repo.SearchEventsByName(ctx, substring)
}

// WatchAll subscribes to the full event listing: the current snapshot
// immediately, a fresh one after every event mutation, until Cancel.
func (s *EventService) WatchAll() (*live.Subscription[[]model.Event], error) {
	return live.Watch(s.bus, s.logger, func(ctx context.Context) ([]model.Event, error) {
		return s.repo.ListEvents(ctx)
	}, live.TopicEvents)
}

// WatchByID subscribes to a single event. Snapshots are *model.Event where
// nil means "absent" — a subscriber holding a detail screen open sees nil
// arrive when the event is deleted out from under it, which is its cue to
// close, not an error.
func (s *EventService) WatchByID(id int64) (*live.Subscription[*model.Event], error) {
	return live.Watch(s.bus, s.logger, func(ctx context.Context) (*model.Event, error) {
		event, err := s.repo.GetEventByID(ctx, id)
		if err != nil {
			if notFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return event, nil
	}, live.TopicEvents)
}

// WatchSearch subscribes to a substring search; the result set re-evaluates
// as events are added, renamed, or removed. The needle is fixed for the
// subscription's lifetime — a changed search box means a new subscription.
func (s *EventService) WatchSearch(substring string) (*live.Subscription[[]model.Event], error) {
	return live.Watch(s.bus, s.logger, func(ctx context.Context) ([]model.Event, error) {
		return s.repo.SearchEventsByName(ctx, substring)
	}, live.TopicEvents)
}
