package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"booknest/internal/auth"
	"booknest/internal/config"
	"booknest/internal/database"
	"booknest/internal/database/books"
	"booknest/internal/database/reviews"
	"booknest/internal/database/users"
	http_controllers "booknest/internal/http"
	"booknest/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the reconciler)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Booknest v%s", version)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.NewDatabase(ctx, cfg.Mongo)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	userRepo := users.NewRepository(db)
	bookRepo := books.NewRepository(db)
	reviewRepo := reviews.NewRepository(db)

	// Generate or use the configured session signing secret
	sessionSecret := cfg.Auth.SessionSecret
	if sessionSecret == "" {
		sessionSecret, err = auth.GenerateSessionSecret()
		if err != nil {
			log.Fatalf("Failed to generate session secret: %v", err)
		}
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist sessions across restarts)")
	}

	tokens := auth.TokenService{
		Secret:        []byte(sessionSecret),
		Lifetime:      cfg.Auth.SessionLifetime,
		SecureCookies: cfg.Auth.SecureCookies,
	}

	authService := auth.NewService(userRepo, cfg.Auth)

	google := auth.NewGoogleProvider(cfg.OAuth)
	if google == nil {
		log.Printf("Google sign-in: disabled (GOOGLE_CLIENT_ID not set)")
	}

	// CSRF protection is only enabled when a secret is configured
	var csrfSecret []byte
	if cfg.Auth.CSRFSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.CSRFSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.CSRFSecret)
		}
	} else {
		log.Printf("CSRF protection: disabled (set CSRF_SECRET to enable)")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:      db,
		Books:         bookRepo,
		Reviews:       reviewRepo,
		AuthService:   authService,
		Tokens:        tokens,
		Google:        google,
		CSRFSecret:    csrfSecret,
		SecureCookies: cfg.Auth.SecureCookies,
		Version:       version,
	})

	// Start the orphaned-review reconciler
	reconciler := scheduler.NewReviewReconciler(db, cfg.Reconcile)
	if err := reconciler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start review reconciler: %v", err)
	}

	Serve(router, cfg, func(ctx context.Context) {
		reconciler.Stop()
		if err := db.Close(ctx); err != nil {
			log.Printf("Failed to close MongoDB connection: %v", err)
		}
	})
}
