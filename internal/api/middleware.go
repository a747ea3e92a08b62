// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
)

type contextKey string

const usernameKey contextKey = "username"

// usernameFromContext returns the session username, or "" when absent.
func usernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}

// requestIDMiddleware assigns each request an id, echoes it in the
// X-Request-ID header, and binds a request-scoped logger to the context.
func requestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = logging.GenerateRequestID()
			}
			w.Header().Set("X-Request-ID", id)

			ctx := logging.ContextWithRequestID(r.Context(), id)
			logger := logging.Logger().With().Str("request_id", id).Logger()
			ctx = logging.ContextWithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.APIRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// requireSession rejects requests without a valid session cookie and
// stores the bound username on the context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		username, err := s.sessions.verify(cookie.Value)
		if err != nil {
			s.logger.Debug().Err(err).Msg("rejected session token")
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
