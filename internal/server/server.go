package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/john/livefeed/internal/bridge"
	"github.com/john/livefeed/internal/cooldown"
	"github.com/john/livefeed/internal/feed"
	"github.com/john/livefeed/internal/ingest"
	"github.com/john/livefeed/internal/message"
)

// Pipeline is the part of the ingestion pipeline the HTTP surface needs
type Pipeline interface {
	SubmitLocal(text string) (ingest.Outcome, error)
	Cooldown() cooldown.State
	Notices() []message.SystemNotice
	Status() map[string]bool
}

// Deps wires the server to the feed
type Deps struct {
	Pipeline       Pipeline
	Store          *feed.Store
	Bridge         *bridge.Handler // nil when the bridge is disabled
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// Server provides the HTTP surface for the renderer and the bridge
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// New creates a new server listening on addr
func New(addr string, deps Deps) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: deps.Logger,
	}
}

// NewRouter builds the route table
func NewRouter(deps Deps) http.Handler {
	h := &handlers{pipeline: deps.Pipeline, store: deps.Store, log: deps.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/feed", h.getFeed)
		r.Post("/messages", h.postMessage)
		r.Post("/likes", h.postLike)
	})

	if deps.Bridge != nil {
		r.Post("/bridge", deps.Bridge.ServePost)
		r.Get("/bridge/ws", deps.Bridge.ServeWS)
	}

	return r
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server...")
	return s.server.Shutdown(ctx)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
