package log

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ContextKey string

const (
	LoggerContextKey    ContextKey = "logger"
	RequestIDContextKey ContextKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

// FromContext returns the request-scoped logger, or one wrapping the slog
// default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// NewContext stores logger for FromContext. Background loops use it to
// carry their component logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// RequestIDFromContext returns the id assigned by RequestMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// RequestMiddleware assigns a request id (reusing a valid incoming
// X-Request-ID), stores a request-scoped logger in the context and logs the
// start and completion of each request.
func RequestMiddleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			reqLogger := logger.WithComponent(ComponentHTTP).With(FieldRequestID, requestID)
			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			ctx = context.WithValue(ctx, LoggerContextKey, reqLogger)
			r = r.WithContext(ctx)

			clientIP := ClientIP(r)
			reqLogger.DebugContext(ctx, "HTTP request started",
				NewFields().
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
					WithClientIP(clientIP).
					ToSlice()...)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			reqLogger.LogContext(ctx, level, "HTTP request completed",
				NewFields().
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
					WithHTTPResponse(status, time.Since(start).Milliseconds()).
					WithClientIP(clientIP).
					ToSlice()...)
		})
	}
}

// ClientIP returns the remote host of r without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
