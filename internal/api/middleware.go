package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"strayfinder/internal/players"
	"strayfinder/pkg/logger"
)

// structuredLogger logs one line per request, adapted from the teacher's
// request-logging middleware to logrus fields instead of slog.
func structuredLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logger.Log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Info("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// noCache sets the Cache-Control header required for every API response
// except the maps listing/detail endpoints, which the router never routes
// through this middleware.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const ctxKeyPlayer ctxKey = iota

// requireAuth parses the Authorization header and stashes the token in the
// request context for the handler. Player lookup touches strand-owned
// state, so it runs inside the strand submission the handler performs —
// this middleware only parses the header.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := players.ParseBearer(r.Header.Get("Authorization"))
		if err != nil {
			writeAPIError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyPlayer, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromContext(r *http.Request) string {
	t, _ := r.Context().Value(ctxKeyPlayer).(string)
	return t
}
