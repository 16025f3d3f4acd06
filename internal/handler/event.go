// Package handler is the HTTP collaborator: it translates requests into
// facade calls and facade results into JSON (or SSE streams, see watch.go).
// No storage or business logic lives here — handlers parse, delegate, and
// render, exactly the seam the store was designed to be tested without.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/goldendays/internal/apperror"
	"github.com/sakif/goldendays/internal/model"
	"github.com/sakif/goldendays/internal/service"
)

// EventHandler manages CRUD and search over events.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// eventRequest is the request body for create and update. Date is optional:
// absent or null means "no date set", otherwise RFC 3339.
type eventRequest struct {
	Name        string     `json:"name"`
	Date        *time.Time `json:"date"`
	Description string     `json:"description"`
}

// parseID pulls a positive integer URL parameter out of the route.
// chi.URLParam returns the raw path segment matched by {param}.
func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(param, "must be a positive integer id")
	}
	return id, nil
}

// HandleList returns all events in insertion order.
//
// HTTP: GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGetByID returns a single event.
//
// HTTP: GET /api/events/{id}
func (h *EventHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleSearch returns events whose name contains the q parameter as a
// substring. An empty (or missing) q returns everything — the behavior of a
// cleared search box.
//
// HTTP: GET /api/events/search?q=day
func (h *EventHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate adds a new event and returns its assigned id.
//
// HTTP: POST /api/events
// BODY: {"name": "Graduation", "date": "2024-06-15T00:00:00Z", "description": "..."}
//
// VALIDATION AT THE EDGE:
// The store's contract says the caller validates names before submission —
// in the original app the UI did this. This handler is the caller, so the
// blank-name check lives here, not in the facade.
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid event JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, apperror.ValidationFailed("name", "event name is required"))
		return
	}

	id, err := h.events.Add(r.Context(), req.Name, req.Date, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// HandleUpdate replaces the full event record at {id}. Partial updates are
// not a thing in this API: send the whole record back, edited.
//
// HTTP: PUT /api/events/{id}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid event JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, apperror.ValidationFailed("name", "event name is required"))
		return
	}

	event := model.Event{
		ID:          id,
		Name:        req.Name,
		Date:        req.Date,
		Description: req.Description,
	}
	if err := h.events.Update(r.Context(), event); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event and, atomically with it, every media item
// attached to it.
//
// HTTP: DELETE /api/events/{id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.events.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
