// Package http provides the HTTP adapter for the application layer. It is
// a thin translation layer: handlers bind payloads, resolve the actor and
// call services; all rules live below.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nadersamir/approval-flow/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JWTSecret    string
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	authService service.AuthService,
	workflowService service.WorkflowService,
	requestService service.RequestService,
	dashboardService service.DashboardService,
	notificationService service.NotificationService,
	activityLogService service.ActivityLogService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(authService, workflowService, requestService, dashboardService, notificationService, activityLogService, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", s.handlers.Register)
		auth.POST("/login", s.handlers.Login)
	}

	authed := api.Group("", authMiddleware(s.config.JWTSecret))
	{
		workflows := authed.Group("/workflows")
		{
			workflows.POST("", s.handlers.CreateWorkflow)
			workflows.GET("", s.handlers.ListWorkflows)
			workflows.GET("/:id", s.handlers.GetWorkflow)
			workflows.PUT("/:id", s.handlers.UpdateWorkflow)
			workflows.DELETE("/:id", s.handlers.DeleteWorkflow)
		}

		requests := authed.Group("/requests")
		{
			requests.POST("/workflow/:workflowId", s.handlers.CreateRequest)
			requests.GET("", s.handlers.ListRequests)
			requests.GET("/pending", s.handlers.ListPendingRequests)
			requests.GET("/:id", s.handlers.GetRequest)
			requests.POST("/:requestId/approve", s.handlers.SubmitDecision)
		}

		authed.GET("/dashboard", s.handlers.Dashboard)

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", s.handlers.ListNotifications)
			notifications.POST("/:userId", s.handlers.CreateNotification)
			notifications.PATCH("/:id/read", s.handlers.MarkNotificationRead)
		}

		activityLogs := authed.Group("/activitylogs")
		{
			activityLogs.POST("", s.handlers.RecordActivity)
			activityLogs.GET("", s.handlers.ListActivityLogs)
			activityLogs.GET("/:userId", s.handlers.ListUserActivityLogs)
		}
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
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
