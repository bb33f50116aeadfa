package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// SetChain wraps a handler with the given middlewares, outermost first.
func SetChain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}

// SetRouteChain wraps a single route's handler func, outermost first.
func SetRouteChain(f http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		f = middlewares[i](f)
	}

	return f
}

// HTTPResponseTraceInjection exposes the current trace id on the response so
// clients can reference it in support requests.
func HTTPResponseTraceInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		if span.SpanContext().HasTraceID() {
			w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(statusCode int) {
	rec.statusCode = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

type HTTPRequestLogger struct {
	logger         *logrus.Logger
	debug          bool
	minLoggedLevel int
}

// NewHTTPRequestLogger logs every request when debug is on, otherwise only
// responses at or above minLoggedLevel.
func NewHTTPRequestLogger(logger *logrus.Logger, debug bool, minLoggedLevel int) *HTTPRequestLogger {
	return &HTTPRequestLogger{
		logger:         logger,
		debug:          debug,
		minLoggedLevel: minLoggedLevel,
	}
}

func (l *HTTPRequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		if !l.debug && rec.statusCode < l.minLoggedLevel {
			return
		}

		l.logger.WithContext(r.Context()).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.statusCode,
			"duration": time.Since(start).String(),
		}).Info()
	})
}
