package http

import (
	"context"
	"net/http"
	"time"

	"daan/internal/core"
	"daan/internal/log"
)

// fail writes err as an envelope. Server-side failures are logged with the
// operation that hit them; client errors are already logged by the request
// middleware.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if StatusForError(err) >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldErrorKind, core.Kind(err),
			log.FieldError, err)
	}
	DomainError(err).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Field("status", "ok").
		Field("timestamp", time.Now().UTC().Format(time.RFC3339)).
		Field("uptime", time.Since(s.started).Round(time.Second).String()).
		Write(w)
}

// handleReady checks that the database answers within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "not_configured"}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").
				Field("status", "not_ready").
				Field("checks", map[string]string{"database": "failed"}).
				Write(w)
			return
		}
		checks["database"] = "ok"
	}
	NewJSONResponse().Field("status", "ready").Field("checks", checks).Write(w)
}
