// Package api serves the clinic HTTP API: the symptom checker, the inbound
// SMS webhook and the internal reminder trigger.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
	"github.com/maditrack-server/internal/metrics"
	"github.com/maditrack-server/internal/middleware"
	"github.com/maditrack-server/internal/service"
	"github.com/maditrack-server/pkg/sms"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// InboundHandler processes inbound patient SMS replies
type InboundHandler interface {
	HandleInbound(ctx context.Context, msg domain.InboundMessage) (service.CancellationOutcome, error)
}

// ReminderTrigger runs the reminder job on demand
type ReminderTrigger interface {
	RunNow(ctx context.Context) (*service.ReminderRunReport, error)
}

// Dependencies are the services the HTTP handlers call
type Dependencies struct {
	Store         HealthChecker
	Matcher       *service.DiagnosisMatcher
	Cancellations InboundHandler
	Reminders     ReminderTrigger

	// Signatures validates inbound webhook signatures; nil disables the check.
	Signatures *sms.SignatureValidator
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	deps          Dependencies
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger(logger))
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware())
	}

	server := &Server{
		configManager: configManager,
		deps:          deps,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	cfg := s.configManager.GetConfig()

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(metrics.Handler()))
	}

	timeout := middleware.RequestTimeout(cfg.Server.RequestTimeout)

	v1 := s.router.Group("/api/v1", timeout)
	{
		v1.GET("/symptoms", s.handleListSymptoms)
		v1.POST("/diagnoses", s.handleDiagnoses)
	}

	s.router.Any("/webhooks/sms", timeout, s.handleInboundSMS)

	// Runs can outlive the request timeout, so the trigger is left unbounded
	internal := s.router.Group("/internal", middleware.RequireToken("X-Job-Token", cfg.Reminders.TriggerToken))
	{
		internal.POST("/jobs/reminders", s.handleTriggerReminders)
	}
}

// handleHealth handles liveness requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
	})
}

// handleReady reports whether the datastore is reachable
func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.deps.Store != nil {
		if err := s.deps.Store.Health(ctx); err != nil {
			s.logger.WithError(err).Warn("Readiness check failed")
			s.respondError(c, http.StatusServiceUnavailable, domain.ErrUnavailable, "Datastore unavailable", "")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// respondError writes a standardized APIError body
func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationIDKey)))
}
