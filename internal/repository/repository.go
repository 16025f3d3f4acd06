package repository

import (
	"context"

	"github.com/sakif/goldendays/internal/model"
)

// EventRepository is the storage contract for events. Implementations must
// assign IDs on Create, report zero-row updates/deletes as NotFound, and
// make Delete cascade to the event's media atomically.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	SearchEventsByName(ctx context.Context, substring string) ([]model.Event, error)
}

// MediaRepository is the storage contract for media blobs. There is no
// update — media rows are immutable once inserted.
//
// Method names carry the entity (CreateMedia, not Create) because one
// storage type implements both repository interfaces.
type MediaRepository interface {
	CreateMedia(ctx context.Context, media *model.Media) error
	DeleteMedia(ctx context.Context, mediaID int64) error
	GetMediaByID(ctx context.Context, mediaID int64) (*model.Media, error)
	ListMediaByEventID(ctx context.Context, eventID int64) ([]model.Media, error)
}
