package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"telecord/internal/config"
	"telecord/internal/constants"
	"telecord/internal/middleware"
	"telecord/internal/models"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// mappingStore is the slice of the database the admin surface needs.
type mappingStore interface {
	ListRoutingMappings(ctx context.Context) ([]models.RoutingMapping, error)
	UpsertRoutingMapping(ctx context.Context, mapping *models.RoutingMapping) error
}

// Server is the HTTP front-end: health, the public avatar directory, and the
// routing-mapping admin surface. It carries no message traffic; the relay
// pipeline is fed directly by the Telegram connection.
type Server struct {
	router    *mux.Router
	logger    *logrus.Logger
	db        mappingStore
	cfg       config.ServerConfig
	avatarDir string
	server    *http.Server
}

func NewServer(cfg config.ServerConfig, db mappingStore, avatarDir string, logger *logrus.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		db:        db,
		cfg:       cfg,
		avatarDir: avatarDir,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Observability(s.logger))

	// Health check
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)

	// Avatar files, referenced by the avatar_url persisted in sender profiles
	s.router.PathPrefix(constants.AvatarURLPrefix).Handler(
		http.StripPrefix(constants.AvatarURLPrefix, http.FileServer(http.Dir(s.avatarDir))),
	).Methods(http.MethodGet)

	// Routing mapping administration
	s.router.HandleFunc("/mappings", s.handleListMappings()).Methods(http.MethodGet)
	s.router.HandleFunc("/mappings", s.handleUpsertMapping()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadTimeoutSec * time.Second,
		WriteTimeout: constants.DefaultServerWriteTimeoutSec * time.Second,
		IdleTimeout:  constants.DefaultServerIdleTimeoutSec * time.Second,
	}

	s.logger.Infof("Starting server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) handleListMappings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mappings, err := s.db.ListRoutingMappings(r.Context())
		if err != nil {
			s.logger.WithError(err).Error("Failed to list routing mappings")
			s.writeError(w, http.StatusInternalServerError, "failed to list mappings")
			return
		}
		if mappings == nil {
			mappings = []models.RoutingMapping{}
		}
		s.writeJSON(w, http.StatusOK, mappings)
	}
}

func (s *Server) handleUpsertMapping() http.HandlerFunc {
	type request struct {
		GroupID    int64  `json:"groupId"`
		TopicID    int32  `json:"topicId"`
		WebhookURL string `json:"webhookUrl"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.GroupID == 0 {
			s.writeError(w, http.StatusBadRequest, "groupId is required")
			return
		}
		if err := validateWebhookURL(req.WebhookURL); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		mapping := &models.RoutingMapping{
			GroupID:        req.GroupID,
			TopicID:        req.TopicID,
			DestinationURL: req.WebhookURL,
		}
		if err := s.db.UpsertRoutingMapping(r.Context(), mapping); err != nil {
			s.logger.WithError(err).Error("Failed to upsert routing mapping")
			s.writeError(w, http.StatusInternalServerError, "failed to save mapping")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"group_id": req.GroupID,
			"topic_id": req.TopicID,
		}).Info("Routing mapping saved")
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}
}

func validateWebhookURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("webhookUrl is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("webhookUrl is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhookUrl must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("webhookUrl must include a host")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
