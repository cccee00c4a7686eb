// Package server wires the services, the Huma API and the plain HTTP
// handlers into one http.Handler.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/amanmaurya7/f1-map/internal/api"
	"github.com/amanmaurya7/f1-map/internal/config"
	"github.com/amanmaurya7/f1-map/internal/metrics"
	"github.com/amanmaurya7/f1-map/internal/service"
	"github.com/amanmaurya7/f1-map/internal/templates"
)

// Version is reported by /health and the OpenAPI document.
const Version = "1.0.0"

// Config holds the server configuration.
type Config struct {
	Host         string
	Port         string
	Track        *config.Config
	FragmentsDir string // optional on-disk override of the embedded HTML fragments
	Logger       *slog.Logger
}

// Server is the racemap HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	services *api.Services
	renderer *templates.Renderer
	log      *slog.Logger
}

// New creates a new server. It fails only when the track configuration is
// unusable or the HTML fragments do not parse.
func New(cfg Config) (*Server, error) {
	if cfg.Track == nil {
		cfg.Track = config.Default()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	track, err := service.NewTrackService(cfg.Track)
	if err != nil {
		return nil, err
	}
	opts := cfg.Track.TrackerOptions()
	opts.Logger = log
	services := &api.Services{
		Track:    track,
		Location: service.NewLocationService(track, opts),
	}

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("parse fragments: %w", err)
	}
	if cfg.FragmentsDir != "" {
		if err := renderer.Reload(cfg.FragmentsDir); err != nil {
			return nil, fmt.Errorf("load fragments from %s: %w", cfg.FragmentsDir, err)
		}
		log.Info("loaded fragment templates", "dir", cfg.FragmentsDir)
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("racemap API", Version)
	humaConfig.Info.Description = "Racetrack map API: projects points of interest onto the track image and filters live device locations."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humago.New(mux, humaConfig),
		services: services,
		renderer: renderer,
		log:      log,
	}
	s.routes()
	s.handler = metrics.Middleware(mux, s.routePattern)

	if cfg.Track.Tracking.Autostart {
		if _, err := services.Location.Session(context.Background(), service.ActionStart); err != nil {
			return nil, fmt.Errorf("start tracking session: %w", err)
		}
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the services behind the API.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close stops the tracking session.
func (s *Server) Close() error {
	s.services.Location.Close()
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services, Version))

	// Datastar SSE routes
	api.NewStreamHandler(s.services, s.renderer, s.log).RegisterRoutes(s.humaAPI)

	s.mux.Handle("/ws/location", api.NewLocationSocket(s.services.Location, s.log))
	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.HandleFunc("/", s.handleRoot)
}

// routePattern labels metrics with the matched route rather than the raw
// path so path parameters do not explode cardinality.
func (s *Server) routePattern(r *http.Request) string {
	if _, pattern := s.mux.Handler(r); pattern != "" {
		return pattern
	}
	return "unmatched"
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "racemap",
		"track":   s.services.Track.Name(),
		"status":  "running",
	})
}
