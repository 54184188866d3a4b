package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/usersapi/internal/api/docs"
	"github.com/martijn/usersapi/internal/api/dto"
	"github.com/martijn/usersapi/internal/api/handler"
	"github.com/martijn/usersapi/internal/api/middleware"
	"github.com/martijn/usersapi/internal/core/service"
	"github.com/martijn/usersapi/pkg/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	config *config.Config
	log    *slog.Logger
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	log *slog.Logger,
	userService *service.UserService,
	store Pinger,
) *Server {
	// Set Gin mode
	if !cfg.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
		gin.DefaultWriter = io.Discard
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	userHandler := handler.NewUserHandler(userService)

	users := router.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		now := time.Now().Format(time.RFC3339)
		if store != nil {
			if err := store.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{
					Status: "unavailable",
					Time:   now,
					Error:  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status: "ok",
			Time:   now,
		})
	})

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = "/"
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// The http.Server exists before Start so Shutdown can race it safely;
	// shutting down first makes a later Start return http.ErrServerClosed.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	return &Server{
		router: router,
		srv:    srv,
		config: cfg,
		log:    log,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
