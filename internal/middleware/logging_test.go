package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestRequestLoggingAssignsRequestID(t *testing.T) {
	var seenID string
	handler := RequestLogging(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestIDFromContextWithoutMiddleware(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestResponseWrapperCapturesStatusAndSize(t *testing.T) {
	handler := RequestLogging(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
	}{
		{
			name: "x-forwarded-for first hop",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
			},
			expected: "203.0.113.9",
		},
		{
			name: "x-real-ip",
			setup: func(r *http.Request) {
				r.Header.Set("X-Real-IP", "198.51.100.4")
			},
			expected: "198.51.100.4",
		},
		{
			name:     "remote addr fallback",
			setup:    func(r *http.Request) { r.RemoteAddr = "192.0.2.7:5123" },
			expected: "192.0.2.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			assert.Equal(t, tt.expected, clientIP(r))
		})
	}
}
