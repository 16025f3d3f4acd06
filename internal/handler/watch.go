package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/goldendays/internal/live"
	"github.com/sakif/goldendays/internal/service"
)

// WatchHandler bridges live subscriptions to server-sent events, so a client
// holds one GET open and receives a fresh JSON snapshot every time the
// underlying query result changes — never polling. Each connected client is
// its own independent subscription; closing one never disturbs another.
//
// The subscription's lifetime is the request context's lifetime: the client
// disconnecting (or the server shutting down) cancels it, which is the
// "owner controls its own lifetime" rule with the request as owner.
type WatchHandler struct {
	events *service.EventService
	media  *service.MediaService
	logger *slog.Logger
}

// NewWatchHandler creates a WatchHandler.
func NewWatchHandler(events *service.EventService, media *service.MediaService, logger *slog.Logger) *WatchHandler {
	return &WatchHandler{events: events, media: media, logger: logger}
}

// HandleWatchEvents streams the full event listing.
//
// HTTP: GET /api/events/watch
func (h *WatchHandler) HandleWatchEvents(w http.ResponseWriter, r *http.Request) {
	sub, err := h.events.WatchAll()
	if err != nil {
		writeError(w, err)
		return
	}
	serveWatch(w, r, h.logger, sub)
}

// HandleWatchSearch streams a substring search's result set. The needle is
// fixed per connection; a changed search box opens a new stream.
//
// HTTP: GET /api/events/search/watch?q=day
func (h *WatchHandler) HandleWatchSearch(w http.ResponseWriter, r *http.Request) {
	sub, err := h.events.WatchSearch(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	serveWatch(w, r, h.logger, sub)
}

// HandleWatchEvent streams a single event; the snapshot becomes JSON null
// when the event is deleted, which is a detail screen's cue to close.
//
// HTTP: GET /api/events/{id}/watch
func (h *WatchHandler) HandleWatchEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.events.WatchByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	serveWatch(w, r, h.logger, sub)
}

// HandleWatchEventMedia streams an event's media listing — a gallery that
// empties itself when its event is cascade-deleted elsewhere.
//
// HTTP: GET /api/events/{id}/media/watch
func (h *WatchHandler) HandleWatchEventMedia(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.media.WatchByEvent(eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	serveWatch(w, r, h.logger, sub)
}

// HandleWatchMedia streams one media item's metadata (null once deleted).
//
// HTTP: GET /api/media/{id}/watch
func (h *WatchHandler) HandleWatchMedia(w http.ResponseWriter, r *http.Request) {
	mediaID, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.media.WatchByID(mediaID)
	if err != nil {
		writeError(w, err)
		return
	}
	serveWatch(w, r, h.logger, sub)
}

// serveWatch pumps a subscription into an SSE response until the client
// disconnects. A free function because Go methods cannot be generic.
//
// SSE FRAMING:
// Each emission is one "data: <json>\n\n" frame, flushed immediately —
// without the Flush the snapshot would sit in net/http's buffer until it
// filled. The subscription itself already coalesces, so a slow client
// receives the latest state, not a backlog.
func serveWatch[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, sub *live.Subscription[T]) {
	defer sub.Cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		// Shouldn't happen with net/http's ResponseWriter, but a buffering
		// middleware could hide it. An unflushable stream is useless.
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	logger.Info("watch stream opened",
		slog.String("subscription", sub.ID()),
		slog.String("path", r.URL.Path),
	)

	for {
		select {
		case <-r.Context().Done():
			logger.Info("watch stream closed",
				slog.String("subscription", sub.ID()),
			)
			return
		case snapshot, ok := <-sub.Updates():
			if !ok {
				return
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				logger.Error("failed to marshal watch snapshot",
					slog.String("subscription", sub.ID()),
					slog.String("error", err.Error()),
				)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
