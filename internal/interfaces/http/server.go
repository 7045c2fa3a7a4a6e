// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application
// service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/application/service"
	"github.com/fleetops/tms/internal/report"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ReportOutputDir string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ReportOutputDir: "reports",
	}
}

// Server is the HTTP server adapter
type Server struct {
	config        ServerConfig
	httpServer    *http.Server
	router        *gin.Engine
	workflows     service.WorkflowService
	requests      service.RequestService
	allocator     service.AllocatorService
	vehicles      service.VehicleService
	notifications service.NotificationService
	reports       *report.KilometerReportGenerator
	directory     port.ActorDirectory
	logger        Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	workflows service.WorkflowService,
	requests service.RequestService,
	allocator service.AllocatorService,
	vehicles service.VehicleService,
	notifications service.NotificationService,
	reports *report.KilometerReportGenerator,
	directory port.ActorDirectory,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:        config,
		router:        router,
		workflows:     workflows,
		requests:      requests,
		allocator:     allocator,
		vehicles:      vehicles,
		notifications: notifications,
		reports:       reports,
		directory:     directory,
		logger:        logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.workflows, s.requests, s.allocator, s.vehicles, s.notifications, s.reports, s.directory, s.config.ReportOutputDir, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes; every request acts on behalf of the user named by the
	// X-Actor-ID header, resolved by the actor middleware
	api := s.router.Group("/api", handlers.ResolveActor)
	{
		api.POST("/requests/:kind", handlers.CreateRequest)
		api.GET("/requests/:kind", handlers.ListRequests)
		api.GET("/requests/:kind/:id", handlers.GetRequest)
		api.GET("/requests/:kind/:id/audit", handlers.GetAuditTrail)
		api.POST("/requests/:kind/:id/forward", handlers.Forward)
		api.POST("/requests/:kind/:id/approve", handlers.Approve)
		api.POST("/requests/:kind/:id/reject", handlers.Reject)
		api.POST("/requests/:kind/:id/estimate", handlers.Estimate)
		api.POST("/requests/:kind/:id/complete", handlers.CompleteTrip)
		api.POST("/requests/:kind/:id/documents", handlers.SubmitMaintenanceDocs)
		api.POST("/requests/:kind/:id/vehicle", handlers.AssignVehicle)

		api.POST("/vehicles", handlers.RegisterVehicle)
		api.GET("/vehicles", handlers.ListAvailableVehicles)
		api.GET("/vehicles/:id", handlers.GetVehicle)
		api.PUT("/vehicles/:id/driver", handlers.AssignDriver)
		api.DELETE("/vehicles/:id/driver", handlers.UnassignDriver)
		api.POST("/vehicles/:id/kilometers", handlers.RecordKilometers)
		api.GET("/vehicles/:id/kilometers", handlers.ListKilometers)
		api.POST("/vehicles/:id/serviced", handlers.MarkServiced)

		api.GET("/notifications", handlers.ListNotifications)
		api.GET("/notifications/unread-count", handlers.CountUnread)
		api.PUT("/notifications/:id/read", handlers.MarkNotificationRead)
		api.POST("/notifications/read-all", handlers.MarkAllNotificationsRead)

		api.GET("/reports/kilometers", handlers.KilometerReport)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
