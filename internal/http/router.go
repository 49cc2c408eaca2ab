package http

import (
	"github.com/gin-gonic/gin"

	"booknest/internal/auth"
	"booknest/internal/database"
)

// RouterConfig holds every dependency the router wires together.
// All fields except the stores are optional; a nil CSRF secret
// disables CSRF protection (used by tests).
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Books    BookStore
	Reviews  ReviewStore

	// Authentication
	AuthService *auth.Service
	Tokens      auth.TokenService
	Google      *auth.GoogleProvider

	// CSRF protection
	CSRFSecret    []byte
	SecureCookies bool

	// Application info
	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection when a secret is configured.
	// Bearer-token requests bypass it inside the middleware.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.Tokens))
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Session endpoints
	if cfg.AuthService != nil {
		authController := auth.NewAuthController(cfg.AuthService, cfg.Tokens, cfg.Google)
		authController.RegisterRoutes(router)
	}

	// Catalogue endpoints
	NewBooksController(cfg.Books, cfg.Tokens).RegisterRoutes(router)
	NewReviewsController(cfg.Reviews, cfg.Tokens).RegisterRoutes(router)

	return router
}
