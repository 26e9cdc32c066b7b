// Package main is the entry point for the desk reservation server.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desk-reserve/backend/internal/api"
	"github.com/desk-reserve/backend/internal/api/middleware"
	"github.com/desk-reserve/backend/internal/auth"
	"github.com/desk-reserve/backend/internal/booking"
	"github.com/desk-reserve/backend/internal/config"
	"github.com/desk-reserve/backend/internal/floorplan"
	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Health check mode for Docker HEALTHCHECK
	if cfg.HealthCheck {
		if err := runHealthCheck(cfg.Addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	// Allow overriding version via environment (e.g., injected by container build/runtime)
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting desk reservation server (version: %s)...", version)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to load timezone: %v", err)
	}

	// Initialize database
	db, err := storage.NewDB(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := storage.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	bookingRepo := storage.NewBookingRepository(db)
	userRepo := storage.NewUserRepository(db)
	planRepo := storage.NewFloorPlanRepository(db)

	// Initialize services
	engine := booking.NewEngine(bookingRepo, hub)
	store := floorplan.NewStore(planRepo, engine, hub)
	presenter := floorplan.NewPresenter(store)

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		log.Println("Warning: JWT_SECRET not set, using a random secret; tokens will not survive a restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
	}
	tokens := auth.NewTokenService(secret, cfg.TokenTTL)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	// Initialize schedulers
	digestScheduler := booking.NewDigestScheduler(engine, hub, cfg.DigestSchedule, loc)
	if err := digestScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start digest scheduler: %v", err)
	}

	router := api.NewRouter(api.Services{
		DB:             db,
		Bookings:       bookingRepo,
		Users:          userRepo,
		Plans:          planRepo,
		Hub:            hub,
		Engine:         engine,
		Store:          store,
		Presenter:      presenter,
		Tokens:         tokens,
		Limiter:        limiter,
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins,
		Location:       loc,
		Version:        version,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	server.RegisterOnShutdown(hub.Stop)

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	digestScheduler.Stop()
	limiter.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	if addr != "" && addr[0] != ':' {
		url = "http://" + addr + "/api/health"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
