package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/goldendays/internal/apperror"
	"github.com/sakif/goldendays/internal/live"
	"github.com/sakif/goldendays/internal/model"
	"github.com/sakif/goldendays/internal/repository"
)

// Item is one picked media file entering the blob path: raw encoded bytes
// plus the content-type hint the source reported (e.g. "image/png",
// "video/mp4").
type Item struct {
	Data        []byte
	ContentType string
}

// IngestResult reports what happened to each item of a batch. The facade
// surfaces skip/failure counts instead of raising a hard error so the caller
// can tell the user "3 added, 1 skipped" — silent-and-unreported was the one
// behavior explicitly ruled out.
type IngestResult struct {
	AddedIDs []int64 `json:"addedIds"` // ids of persisted media, in input order
	Skipped  int     `json:"skipped"`  // unrecognized content type, dropped by policy
	Failed   int     `json:"failed"`   // classified fine but storage rejected it
}

// MediaService exposes the media blob path: batch ingest with
// classification, byte-for-byte retrieval, deletion, and live queries.
type MediaService struct {
	repo   repository.MediaRepository
	bus    *live.Bus
	logger *slog.Logger
}

// NewMediaService creates a MediaService.
func NewMediaService(repo repository.MediaRepository, bus *live.Bus, logger *slog.Logger) *MediaService {
	return &MediaService{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// classify maps a content-type hint to a stored media type. Only the prefix
// matters: anything image-ish is "image", anything video-ish is "video",
// and everything else is unrecognized — those items are dropped (and
// counted) rather than persisted with a type nothing can play back.
func classify(contentType string) (string, bool) {
	switch {
	case strings.HasPrefix(contentType, "image"):
		return model.MediaTypeImage, true
	case strings.HasPrefix(contentType, "video"):
		return model.MediaTypeVideo, true
	default:
		return "", false
	}
}

// Ingest persists a batch of picked media items against one event.
//
// Items are processed independently — one bad apple never aborts its
// siblings. Three outcomes per item:
//   - classified and stored → its id appears in AddedIDs
//   - unrecognized content type → Skipped++ (documented drop policy)
//   - storage rejected it → Failed++, error joined into the return
//
// The IngestResult is meaningful even when the error is non-nil: a batch of
// five with one failure still reports four added ids. A nonexistent eventID
// surfaces per item as apperror.ErrForeignKey.
func (s *MediaService) Ingest(ctx context.Context, eventID int64, items []Item) (IngestResult, error) {
	var (
		result   IngestResult
		itemErrs []error
	)

	for _, item := range items {
		mediaType, ok := classify(item.ContentType)
		if !ok {
			result.Skipped++
			s.logger.Warn("skipping media with unrecognized content type",
				slog.Int64("eventId", eventID),
				slog.String("contentType", item.ContentType),
			)
			continue
		}

		media := &model.Media{
			EventID: eventID,
			Data:    item.Data,
			Type:    mediaType,
		}
		if err := s.repo.CreateMedia(ctx, media); err != nil {
			result.Failed++
			itemErrs = append(itemErrs, err)
			s.logger.Error("failed to store media item",
				slog.Int64("eventId", eventID),
				slog.String("type", mediaType),
				slog.String("error", err.Error()),
			)
			continue
		}

		result.AddedIDs = append(result.AddedIDs, media.MediaID)
	}

	if len(result.AddedIDs) > 0 || result.Skipped > 0 {
		s.logger.Info("media batch ingested",
			slog.Int64("eventId", eventID),
			slog.Int("added", len(result.AddedIDs)),
			slog.Int("skipped", result.Skipped),
			slog.Int("failed", result.Failed),
		)
	}

	return result, errors.Join(itemErrs...)
}

// List is a one-shot read of an event's media in insertion order.
func (s *MediaService) List(ctx context.Context, eventID int64) ([]model.Media, error) {
	return s.repo.ListMediaByEventID(ctx, eventID)
}

// Get returns a media row with its payload exactly as stored — no
// transcoding, no interpretation. Decoding for display is the caller's job.
func (s *MediaService) Get(ctx context.Context, mediaID int64) (*model.Media, error) {
	return s.repo.GetMediaByID(ctx, mediaID)
}

// Delete removes one media item. Deleting an already-gone id (e.g. after its
// event's cascade beat the user to it) returns apperror.ErrNotFound.
func (s *MediaService) Delete(ctx context.Context, mediaID int64) error {
	if err := s.repo.DeleteMedia(ctx, mediaID); err != nil {
		return err
	}

	s.logger.Info("media deleted", slog.Int64("mediaId", mediaID))
	return nil
}

// WatchByEvent subscribes to an event's media listing. TopicMedia also fires
// for rows removed by a cascade, so a gallery empties itself when its event
// is deleted elsewhere.
func (s *MediaService) WatchByEvent(eventID int64) (*live.Subscription[[]model.Media], error) {
	return live.Watch(s.bus, s.logger, func(ctx context.Context) ([]model.Media, error) {
		return s.repo.ListMediaByEventID(ctx, eventID)
	}, live.TopicMedia)
}

// WatchByID subscribes to a single media item; nil snapshots mean "absent",
// mirroring EventService.WatchByID.
func (s *MediaService) WatchByID(mediaID int64) (*live.Subscription[*model.Media], error) {
	return live.Watch(s.bus, s.logger, func(ctx context.Context) (*model.Media, error) {
		media, err := s.repo.GetMediaByID(ctx, mediaID)
		if err != nil {
			if notFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return media, nil
	}, live.TopicMedia)
}

// notFound reports whether err is the domain's NotFound, anywhere on the
// chain.
func notFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
