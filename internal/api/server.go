package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"trailprep/internal/auth"
	"trailprep/internal/cache"
	"trailprep/internal/config"
	"trailprep/internal/refine"
	"trailprep/internal/store"
)

// Server wires the analysis core, the store and the external clients behind
// the HTTP boundary.
type Server struct {
	store      *store.Store
	cache      *cache.Cache
	refiner    *refine.Client
	oauth      *auth.Config
	states     *auth.StateStore
	metricsTTL time.Duration
}

func NewServer(cfg *config.Config, st *store.Store) *Server {
	ttl := time.Duration(cfg.Cache.MetricsTTLSeconds) * time.Second
	return &Server{
		store:   st,
		cache:   cache.New(ttl),
		refiner: refine.NewClient(cfg.Refine.URL, cfg.Refine.Model, cfg.Refine.APIKey),
		oauth: &auth.Config{
			ClientID:     cfg.Strava.ClientID,
			ClientSecret: cfg.Strava.ClientSecret,
			RedirectURL:  cfg.Server.CallbackURL,
		},
		states:     auth.NewStateStore(),
		metricsTTL: ttl,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(api chi.Router) {
		api.Post("/estimate", s.handleEstimate)
		api.Post("/zones", s.handleZones)
		api.Post("/readiness", s.handleReadiness)
		api.Post("/barriers", s.handleBarriers)
		api.Post("/refine", s.handleRefine)

		api.Route("/events", func(events chi.Router) {
			events.Get("/", s.handleListEvents)
			events.Post("/", s.handleCreateEvent)
			events.Get("/{id}", s.handleGetEvent)
			events.Put("/{id}", s.handleUpdateEvent)
			events.Delete("/{id}", s.handleDeleteEvent)
			events.Get("/{id}/courses", s.handleListCourses)
			events.Post("/{id}/courses", s.handleCreateCourse)
			events.Post("/{id}/courses/gpx", s.handleImportGPX)
		})

		api.Route("/courses", func(courses chi.Router) {
			courses.Get("/{id}", s.handleGetCourse)
			courses.Put("/{id}", s.handleUpdateCourse)
			courses.Delete("/{id}", s.handleDeleteCourse)
		})

		api.Route("/strava", func(strava chi.Router) {
			strava.Get("/connect", s.handleStravaConnect)
			strava.Get("/callback", s.handleStravaCallback)
			strava.Get("/metrics", s.handleStravaMetrics)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unavailable: "+err.Error())
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "up"})
}
