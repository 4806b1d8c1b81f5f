// Package api exposes the clinical decision support pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/config"
	"github.com/clinical-cds-server/internal/domain"
	"github.com/clinical-cds-server/internal/feedback"
	"github.com/clinical-cds-server/internal/middleware"
	"github.com/clinical-cds-server/internal/service"
)

// AlertStore reads and acknowledges persisted alerts. Nil when the server
// runs without a database.
type AlertStore interface {
	GetActiveByPatientID(ctx context.Context, patientID string) ([]domain.ClinicalAlert, error)
	Acknowledge(ctx context.Context, alertID string) error
}

// Server represents the HTTP server
type Server struct {
	cfg       *config.Config
	log       *logrus.Logger
	router    *gin.Engine
	server    *http.Server
	service   domain.DecisionSupport
	risk      *service.RiskAssessor
	knowledge domain.KnowledgeProvider
	feedback  feedback.Store
	alerts    AlertStore
	hub       *Hub
}

// Dependencies carries everything the server needs. Feedback, Alerts, and
// Hub may be nil; the corresponding endpoints respond 503.
type Dependencies struct {
	Service   domain.DecisionSupport
	Risk      *service.RiskAssessor
	Knowledge domain.KnowledgeProvider
	Feedback  feedback.Store
	Alerts    AlertStore
	Hub       *Hub
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, logger *logrus.Logger, deps Dependencies) *Server {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.AuditLogger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(corsMiddleware())
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		router.Use(limiter.Middleware())
	}

	server := &Server{
		cfg:       cfg,
		log:       logger,
		router:    router,
		service:   deps.Service,
		risk:      deps.Risk,
		knowledge: deps.Knowledge,
		feedback:  deps.Feedback,
		alerts:    deps.Alerts,
		hub:       deps.Hub,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Router exposes the gin engine, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/diagnose", s.handleDiagnose)
		v1.POST("/risk", s.handleRisk)
		v1.GET("/conditions/:key", s.handleGetCondition)

		v1.GET("/alerts/stream", s.handleAlertStream)
		v1.GET("/alerts/:patient_id", s.handleGetAlerts)
		v1.POST("/alerts/:patient_id/acknowledge/:alert_id", s.handleAcknowledgeAlert)

		v1.POST("/feedback", s.handleSaveFeedback)
		v1.GET("/feedback", s.handleListFeedback)
		v1.GET("/feedback/stats", s.handleFeedbackStats)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
