// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled in one place:
//
//	New() creates: live.Bus → sqlite.DB → EventService/MediaService
//	               → EventHandler/MediaHandler/WatchHandler → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handlers knows
// HTTP exists. main.go stays minimal — it builds a Config and calls Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/goldendays/internal/handler"
	"github.com/sakif/goldendays/internal/live"
	"github.com/sakif/goldendays/internal/middleware"
	sqliteRepo "github.com/sakif/goldendays/internal/repository/sqlite"
	"github.com/sakif/goldendays/internal/service"
)

// Config holds server configuration. A struct (instead of parameters) keeps
// signatures stable as options grow and lets main load everything in one
// place.
type Config struct {
	Port   int
	DBPath string // path to the SQLite database file
}

// Server owns the router and the process-wide store handle.
//
// The database is process-wide singleton state: opened once here, closed
// once during graceful shutdown (flushing the WAL and releasing the file
// lock). Nothing else in the program opens the file.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server, opening the database and wiring every handler.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo to keep it visually distinct
// from the driver package of the same name.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	bus := live.NewBus()

	db, err := sqliteRepo.New(cfg.DBPath, bus)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes(bus)

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTE STRUCTURE:
//
//	GET    /api/events                    → list events (insertion order)
//	GET    /api/events/watch              → SSE live event listing
//	GET    /api/events/search?q=          → substring search
//	GET    /api/events/search/watch?q=    → SSE live search
//	POST   /api/events                    → add event
//	GET    /api/events/{id}               → get event
//	GET    /api/events/{id}/watch         → SSE live single event
//	PUT    /api/events/{id}               → full-record update
//	DELETE /api/events/{id}               → delete event (cascades media)
//	GET    /api/events/{id}/media         → list media metadata
//	GET    /api/events/{id}/media/watch   → SSE live media listing
//	POST   /api/events/{id}/media         → multipart batch upload
//	GET    /api/media/{id}                → media metadata
//	GET    /api/media/{id}/watch          → SSE live single media
//	GET    /api/media/{id}/data           → raw stored bytes
//	DELETE /api/media/{id}                → delete media
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
// RequestID (tracing) → RealIP (proxy headers) → Recoverer (panics become
// 500s instead of crashes) → our slog request logger.
func (s *Server) setupRoutes(bus *live.Bus) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	eventService := service.NewEventService(s.db, bus, s.logger)
	mediaService := service.NewMediaService(s.db, bus, s.logger)

	eventHandler := handler.NewEventHandler(eventService, s.logger)
	mediaHandler := handler.NewMediaHandler(mediaService, s.logger)
	watchHandler := handler.NewWatchHandler(eventService, mediaService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
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
}

// Start runs the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Wait for in-flight requests (the open SSE streams end when their
//    request contexts are cancelled by Shutdown's closing of connections)
// 3. Close the database — skipping this can leave the WAL unflushed
//
// The deferred Close runs even if something panics on the way down.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: watch streams are long-lived by design and a
		// write deadline would sever every subscriber mid-stream.
		IdleTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
