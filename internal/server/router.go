package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ironview/backend/ivd/internal/config"
	"ironview/backend/ivd/internal/events"
	"ironview/backend/ivd/internal/machines"
	"ironview/backend/ivd/pkg/httpx"
)

// Version is reported by the health endpoint.
const Version = "0.3.0"

// Logger builds the process logger from the configured level.
func Logger(cfg config.Config) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Logger.Level(cfg.LogLevel).With().Timestamp().Logger()
	return &logger
}

// Server bundles the handlers' dependencies.
type Server struct {
	cfg      config.Config
	logger   zerolog.Logger
	machines *machines.Manager
	events   *events.Log
}

// NewRouter wires the API.
func NewRouter(cfg config.Config, mgr *machines.Manager, ev *events.Log) http.Handler {
	s := &Server{cfg: cfg, logger: *Logger(cfg), machines: mgr, events: ev}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(zerologMiddleware(&s.logger))

	// Dev CORS for the console frontend.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	r.Get("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, map[string]any{"ok": true, "version": Version})
	})
	r.Get("/api/v1/system", s.handleSystem)

	r.Route("/api/v1/machines", func(mr chi.Router) {
		mr.Get("/", s.handleListMachines)
		mr.Post("/", s.handleCreateMachine)
		mr.Route("/{id}", func(one chi.Router) {
			one.Get("/", s.handleGetMachine)
			one.Delete("/", s.handleDeleteMachine)
			one.Put("/devices", s.handleReplaceDevices)
			one.Get("/events", s.handleMachineEvents)

			one.Route("/storage", func(st chi.Router) {
				st.Get("/", s.handleStorageView)
				st.Post("/selected", s.handleToggleSelection)
				st.Put("/options", s.handleSetRowOptions)
				st.Put("/draft", s.handleSetDraft)
				st.Delete("/draft", s.handleClearDraft)

				st.Post("/partition", s.handleCreatePartition)
				st.Delete("/partition", s.handleDeletePartition)
				st.Post("/format", s.handleFormat)
				st.Post("/mount", s.handleMount)
				st.Post("/unmount", s.handleUnmount)
				st.Delete("/filesystem", s.handleDeleteFilesystem)
				st.Delete("/device", s.handleDeleteDevice)
				st.Post("/rename", s.handleRename)
				st.Post("/boot-disk", s.handleSetBootDisk)
				st.Put("/tags", s.handleUpdateTags)

				st.Post("/cacheset", s.handleCreateCacheSet)
				st.Post("/bcache", s.handleCreateBcache)
				st.Post("/raid", s.handleCreateRAID)
				st.Post("/volume-group", s.handleCreateVolumeGroup)
				st.Post("/logical-volume", s.handleCreateLogicalVolume)
			})
		})
	})

	if cfg.MetricsEnabled {
		mountMetricsRoute(r)
	}

	return r
}
