// Package middleware provides the HTTP middleware for the webhook
// server.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request ID assigned by
// RequestLogging, or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// responseWrapper captures the status code and body size written by
// downstream handlers.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
	size       int64
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWrapper) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// RequestLogging assigns each request an ID, echoes it on the response,
// and logs request completion with status, size and duration.
func RequestLogging(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			w.Header().Set("X-Request-ID", requestID)

			log := logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote_ip":  clientIP(r),
			})
			log.Debug("HTTP request started")

			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			next.ServeHTTP(wrapper, r.WithContext(ctx))

			log.WithFields(logrus.Fields{
				"status":      wrapper.statusCode,
				"size":        wrapper.size,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("HTTP request completed")
		})
	}
}

// clientIP resolves the originating client address, trusting proxy
// headers when present.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
