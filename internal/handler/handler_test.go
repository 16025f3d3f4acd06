package handler_test

// HANDLER TESTS:
// These go through a real chi router (URL params come from the route tree,
// so calling handler methods directly would leave {id} empty) wired to a
// real in-memory store. httptest.NewRecorder captures the response without
// opening a socket; only the SSE test needs a live httptest.Server.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/goldendays/internal/handler"
	"github.com/sakif/goldendays/internal/live"
	sqliteRepo "github.com/sakif/goldendays/internal/repository/sqlite"
	"github.com/sakif/goldendays/internal/service"
)

// newTestRouter assembles the same route table the server mounts, over an
// in-memory database.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := live.NewBus()

	db, err := sqliteRepo.New(":memory:", bus)
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })

	eventService := service.NewEventService(db, bus, logger)
	mediaService := service.NewMediaService(db, bus, logger)

	eventHandler := handler.NewEventHandler(eventService, logger)
	mediaHandler := handler.NewMediaHandler(mediaService, logger)
	watchHandler := handler.NewWatchHandler(eventService, mediaService, logger)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.HandleList)
			r.Post("/", eventHandler.HandleCreate)
			r.Get("/watch", watchHandler.HandleWatchEvents)
			r.Get("/search", eventHandler.HandleSearch)
			r.Get("/search/watch", watchHandler.HandleWatchSearch)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.HandleGetByID)
				r.Put("/", eventHandler.HandleUpdate)
				r.Delete("/", eventHandler.HandleDelete)
				r.Get("/watch", watchHandler.HandleWatchEvent)
				r.Get("/media", mediaHandler.HandleListForEvent)
				r.Post("/media", mediaHandler.HandleUpload)
				r.Get("/media/watch", watchHandler.HandleWatchEventMedia)
			})
		})

		r.Route("/media/{id}", func(r chi.Router) {
			r.Get("/", mediaHandler.HandleGetByID)
			r.Get("/watch", watchHandler.HandleWatchMedia)
			r.Get("/data", mediaHandler.HandleGetData)
			r.Delete("/", mediaHandler.HandleDelete)
		})
	})
	return router
}

// doJSON performs a request with an optional JSON body and returns the
// recorded response.
func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorded JSON response into out.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out),
		"response body was not valid JSON: %s", rec.Body.String())
}

// createEvent creates an event over HTTP and returns its assigned id.
func createEvent(t *testing.T, router http.Handler, name string) int64 {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/events", map[string]any{
		"name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var created struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &created)
	require.Positive(t, created.ID)
	return created.ID
}

// filePart describes one part of a multipart upload.
type filePart struct {
	filename    string
	contentType string
	data        []byte
}

// buildMultipart assembles a multipart/form-data body with one "files" part
// per input, each carrying its own Content-Type header — the classification
// hint the handler forwards to the facade.
func buildMultipart(t *testing.T, parts []filePart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="files"; filename="`+p.filename+`"`)
		header.Set("Content-Type", p.contentType)

		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

// uploadMedia posts a multipart batch against an event and returns the
// recorded response.
func uploadMedia(t *testing.T, router http.Handler, path string, parts []filePart) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := buildMultipart(t, parts)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
