package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/goldendays/internal/apperror"
	"github.com/sakif/goldendays/internal/service"
)

// maxUploadBytes caps a whole multipart upload request. Phone videos run big;
// 256 MB covers a generous batch without letting one request exhaust memory.
const maxUploadBytes = 256 << 20

// multipartMemory is how much of a parsed multipart form stays in memory
// before net/http spills parts to temp files.
const multipartMemory = 16 << 20

// MediaHandler manages the media blob path over HTTP: batch upload, metadata
// and raw-byte retrieval, and deletion.
type MediaHandler struct {
	media  *service.MediaService
	logger *slog.Logger
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(media *service.MediaService, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{media: media, logger: logger}
}

// HandleListForEvent returns the metadata of all media attached to an event,
// in insertion order. Payloads are not included (model.Media tags Data with
// json:"-"); clients fetch bytes per item via HandleGetData.
//
// HTTP: GET /api/events/{id}/media
func (h *MediaHandler) HandleListForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.media.List(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleUpload ingests a batch of media files against an event — the HTTP
// rendition of the original app's multi-select picker.
//
// HTTP: POST /api/events/{id}/media
// BODY: multipart/form-data, one or more "files" parts. Each part's own
// Content-Type header is the classification hint.
//
// RESPONSE: the full IngestResult, e.g. {"addedIds":[4,5],"skipped":1,"failed":0}.
// Unrecognized types are skipped by policy, not errored — but the count comes
// back so the UI can tell the user. Only a batch where nothing could even be
// attempted (or every attempt failed) is reported as an error.
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.logger.Warn("invalid multipart upload", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid multipart form"))
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeError(w, apperror.ValidationFailed("files", "at least one file part named 'files' is required"))
		return
	}

	items := make([]service.Item, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		file, err := fh.Open()
		if err != nil {
			writeError(w, apperror.ValidationFailed("files", "unreadable file part"))
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, apperror.ValidationFailed("files", "unreadable file part"))
			return
		}
		items = append(items, service.Item{
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	result, err := h.media.Ingest(r.Context(), eventID, items)
	if err != nil && len(result.AddedIDs) == 0 {
		// Nothing made it in — surface the cause (a bad eventID shows up
		// here as a foreign key violation).
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// HandleGetByID returns one media item's metadata.
//
// HTTP: GET /api/media/{id}
func (h *MediaHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	mediaID, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	media, err := h.media.Get(r.Context(), mediaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

// HandleGetData serves the stored payload verbatim — the exact bytes that
// were ingested, no transcoding. The response Content-Type is sniffed from
// the payload (the store keeps only the image/video classification, not the
// original MIME subtype).
//
// HTTP: GET /api/media/{id}/data
func (h *MediaHandler) HandleGetData(w http.ResponseWriter, r *http.Request) {
	mediaID, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	media, err := h.media.Get(r.Context(), mediaID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(media.Data))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(media.Data); err != nil {
		h.logger.Warn("failed to write media payload",
			slog.Int64("mediaId", mediaID),
			slog.String("error", err.Error()),
		)
	}
}

// HandleDelete removes one media item.
//
// HTTP: DELETE /api/media/{id}
func (h *MediaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	mediaID, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.media.Delete(r.Context(), mediaID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
