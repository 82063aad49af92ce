package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"gymconnect/internal/constants"
	"gymconnect/internal/metrics"
	"gymconnect/internal/middleware"
	"gymconnect/internal/models"
	"gymconnect/internal/service"
	"gymconnect/internal/tracing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router   *mux.Router
	logger   *logrus.Logger
	pipeline *service.Pipeline
	cfg      *models.Config
	server   *http.Server
}

func NewServer(cfg *models.Config, pipeline *service.Pipeline, logger *logrus.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		pipeline: pipeline,
		cfg:      cfg,
	}

	s.router.Use(middleware.RequestLogging(logger))
	s.router.Use(tracing.Middleware())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	webhook := s.router.PathPrefix("/webhook").Subrouter()
	// The test routes must be registered before the {platform} routes
	// or "test" would be captured as a platform name.
	webhook.HandleFunc("/test", s.handleTest()).Methods(http.MethodGet)
	webhook.HandleFunc("/test/{platform}", s.handleTest()).Methods(http.MethodGet)
	webhook.HandleFunc("/{platform}", s.handleVerification()).Methods(http.MethodGet)
	webhook.HandleFunc("/{platform}", s.handleWebhook()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Infof("Starting server on port %s", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":   "GymConnect API - Webhook Service",
			"status":    "online",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"endpoints": map[string]interface{}{
				"webhook": map[string]interface{}{
					"whatsapp":  "/webhook/whatsapp",
					"instagram": "/webhook/instagram",
					"test":      "/webhook/test/{platform}",
				},
				"health":  "/health",
				"metrics": "/metrics",
			},
		})
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) handleTest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := mux.Vars(r)["platform"]
		if platform == "" {
			platform = "unknown"
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":   "Webhook funcionando!",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"platform":  platform,
		})
	}
}

// handleVerification implements the Meta webhook-registration handshake.
// On success the response body is exactly the challenge string, never
// JSON; anything else is a bare 403.
func (s *Server) handleVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := models.Platform(mux.Vars(r)["platform"])
		if !platform.Valid() {
			s.writeJSONError(w, http.StatusNotFound, "unknown platform")
			return
		}

		query := r.URL.Query()
		mode := query.Get("hub.mode")
		token := query.Get("hub.verify_token")
		challenge := query.Get("hub.challenge")

		if mode == "subscribe" && token == s.cfg.Server.VerifyToken {
			s.logger.WithField("platform", platform).Info("Webhook verification succeeded")
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, challenge)
			return
		}

		s.logger.WithFields(logrus.Fields{
			"platform": platform,
			"mode":     mode,
		}).Warn("Webhook verification rejected")
		w.WriteHeader(http.StatusForbidden)
	}
}

func (s *Server) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := models.Platform(mux.Vars(r)["platform"])
		if !platform.Valid() {
			s.writeJSONError(w, http.StatusNotFound, "unknown platform")
			return
		}
		metrics.WebhooksReceived.WithLabelValues(string(platform)).Inc()

		body, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxWebhookBodyBytes))
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		if s.cfg.Server.AsyncWebhooks {
			// Acknowledge before processing: the platform retries on a
			// slow or non-2xx response, and a retried delivery would be
			// processed as a duplicate.
			s.pipeline.ProcessDetached(platform, body)
			s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}

		result, err := s.pipeline.Process(r.Context(), platform, body)
		if err != nil {
			if errors.Is(err, service.ErrEmptyMessage) {
				s.writeJSONError(w, http.StatusBadRequest, "empty message")
				return
			}
			s.logger.WithError(err).WithFields(logrus.Fields{
				"platform":   platform,
				"request_id": middleware.RequestIDFromContext(r.Context()),
			}).Error("Webhook processing failed")
			s.writeJSONError(w, http.StatusInternalServerError, "failed to process message")
			return
		}

		if result.Ignored {
			s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}

		if platform == models.PlatformInstagram {
			s.writeJSON(w, http.StatusOK, manyChatResponse(result.Response))
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"message":  "message processed",
			"response": result.Response,
		})
	}
}

// manyChatResponse wraps a reply in the ManyChat v2 sending envelope
// that Instagram webhook callers expect as the response body.
func manyChatResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"version": "v2",
		"content": map[string]interface{}{
			"messages": []map[string]interface{}{
				{"type": "text", "text": text},
			},
		},
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{"error": message})
}
