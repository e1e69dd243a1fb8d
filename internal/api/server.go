// Package api implements the HTTP+JSON dispatcher rooted at /api/v1: it
// classifies, authenticates, and serializes every request, submitting
// mutating and shared-state-reading calls onto the strand before they
// touch world or player state. Everything outside /api/v1 falls through
// to the static file handler.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"strayfinder/internal/apperr"
	"strayfinder/internal/players"
	"strayfinder/internal/store"
	"strayfinder/internal/strand"
	"strayfinder/internal/tick"
	"strayfinder/internal/version"
	"strayfinder/internal/world"
)

// Server wires the HTTP surface to the core subsystems. All fields are
// safe for concurrent read; mutation always goes through Strand.
type Server struct {
	World       *world.Registry
	Players     *players.Registry
	Pipeline    *tick.Pipeline
	Leaderboard *store.Leaderboard
	Strand      *strand.Strand
	Static      http.Handler

	// AutoTickEnabled disables the external /api/v1/game/tick endpoint,
	// per the mutual-exclusion design note in spec.md §9.
	AutoTickEnabled bool

	srv *http.Server
}

// New builds the router and wraps it in an *http.Server bound to addr.
func New(addr string, s *Server) *Server {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(structuredLogger)
	r.Use(middleware.Recoverer)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, apperr.NewValidation(apperr.InvalidMethod, "method not allowed"))
	})

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, version.Info())
	})

	r.Route("/api/v1", func(r chi.Router) {
		// chi mounts Route() as its own sub-router, so the JSON 405
		// handler above does not propagate here without repeating it.
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(w, apperr.NewValidation(apperr.InvalidMethod, "method not allowed"))
		})

		// Maps are config, loaded once at startup: they opt out of the
		// no-cache policy applied to every other API response.
		getAndHead(r, "/maps", s.handleListMaps)
		getAndHead(r, "/maps/{id}", s.handleGetMap)

		r.Group(func(r chi.Router) {
			r.Use(noCache)

			r.Post("/game/join", s.handleJoin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				getAndHead(r, "/game/players", s.handleGamePlayers)
				getAndHead(r, "/game/state", s.handleGameState)
				r.Post("/game/player/action", s.handlePlayerAction)
			})

			r.Post("/game/tick", s.handleTick)
			getAndHead(r, "/game/records", s.handleRecords)
		})
	})

	if s.Static != nil {
		r.NotFound(s.Static.ServeHTTP)
	}

	return r
}

// getAndHead registers the same handler for GET and HEAD, since every
// read endpoint in spec.md §4.8 allows both.
func getAndHead(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Head(pattern, h)
}

// Run starts serving and blocks until ctx is canceled, then gracefully
// shuts down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
