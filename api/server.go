// Package api provides the HTTP REST surface for taskforge.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/taskforge/taskforge/pkg/accounts"
	"github.com/taskforge/taskforge/pkg/config"
	"github.com/taskforge/taskforge/pkg/logger"
	"github.com/taskforge/taskforge/pkg/store"
	"github.com/taskforge/taskforge/pkg/tasks"
	"github.com/taskforge/taskforge/pkg/tokens"
)

// Server represents the API server instance.
type Server struct {
	config   *config.Config
	logger   logger.Logger
	router   *gin.Engine
	server   *http.Server
	repo     *store.Repository
	accounts *accounts.Manager
	tasks    *tasks.Engine
	tokens   *tokens.Service
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, log logger.Logger, repo *store.Repository,
	accountManager *accounts.Manager, taskEngine *tasks.Engine, tokenService *tokens.Service) *Server {

	if cfg.Log.Level == "error" || cfg.Log.Level == "warn" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	s := &Server{
		config:   cfg,
		logger:   log,
		router:   router,
		repo:     repo,
		accounts: accountManager,
		tasks:    taskEngine,
		tokens:   tokenService,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	s.router.Use(cors.New(corsConfig))
}

// setupRoutes configures all API routes. Everything except registration,
// login, health, and the docs endpoints sits behind the authorization gate.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/openapi.json", s.getOpenAPISpec)

	auth := s.authMiddleware()

	users := s.router.Group("/users")
	{
		users.POST("", s.register)
		users.POST("/login", s.login)

		users.GET("/me", auth, s.getProfile)
		users.PATCH("/me", auth, s.updateProfile)
		users.DELETE("/me", auth, s.deleteAccount)
		users.POST("/logout", auth, s.logout)
		users.POST("/logoutAll", auth, s.logoutAll)
		users.PUT("/password", auth, s.changePassword)
	}

	taskRoutes := s.router.Group("/tasks", auth)
	{
		taskRoutes.POST("", s.createTask)
		taskRoutes.GET("", s.listTasks)
		taskRoutes.GET("/:id", s.getTask)
		taskRoutes.PATCH("/:id", s.updateTask)
		taskRoutes.DELETE("/:id", s.deleteTask)
	}
}

// Start starts the API server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.Info("Starting API server", map[string]interface{}{
		"addr": s.config.Server.Addr,
		"mode": gin.Mode(),
	})

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Failed to start server", err)
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
