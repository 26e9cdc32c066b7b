// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/desk-reserve/backend/internal/api/handlers"
	"github.com/desk-reserve/backend/internal/api/middleware"
	"github.com/desk-reserve/backend/internal/auth"
	"github.com/desk-reserve/backend/internal/booking"
	"github.com/desk-reserve/backend/internal/floorplan"
	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/websocket"
)

// Services are the dependencies the routes are built from.
type Services struct {
	DB        *storage.DB
	Bookings  *storage.BookingRepository
	Users     *storage.UserRepository
	Plans     *storage.FloorPlanRepository
	Hub       *websocket.Hub
	Engine    *booking.Engine
	Store     *floorplan.Store
	Presenter *floorplan.Presenter
	Tokens    *auth.TokenService
	Limiter   *middleware.RateLimiter

	StaticDir      string
	AllowedOrigins []string
	Location       *time.Location
	Version        string
}

// NewRouter creates and configures the HTTP router with all API routes,
// wrapped in the CORS handler.
func NewRouter(s Services) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()
	if s.Limiter != nil {
		api.Use(s.Limiter.Limit)
	}
	api.Use(middleware.OptionalAuth(s.Tokens))

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.DB, s.Version)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(s.DB, s.Bookings, s.Users, s.Plans, s.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub, s.AllowedOrigins)).Methods("GET")

	// Auth endpoints
	api.HandleFunc("/auth/token", handlers.IssueToken(s.Tokens, s.Users)).Methods("POST")
	api.HandleFunc("/auth/verify", handlers.VerifyToken()).Methods("GET")

	// Booking endpoints
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.HandleFunc("/health", handlers.BookingServiceHealth(s.Bookings)).Methods("GET")
	bookings.HandleFunc("/seat", handlers.CreateBooking(s.Engine, s.Users)).Methods("POST")
	bookings.HandleFunc("", handlers.ListBookings(s.Engine, s.Users)).Methods("GET")
	bookings.HandleFunc("/location", handlers.ListBookingsByLocation(s.Engine, s.Users)).Methods("GET")
	bookings.HandleFunc("/check-availability", handlers.CheckAvailability(s.Engine)).Methods("GET")
	bookings.HandleFunc("/user/{userId}/dashboard", handlers.UserDashboard(s.Engine, s.Users, s.Location)).Methods("GET")
	bookings.HandleFunc("/{id}", handlers.GetBooking(s.Engine, s.Users)).Methods("GET")
	bookings.HandleFunc("/{id}", handlers.CancelBooking(s.Engine, s.Users)).Methods("DELETE")

	// Dynamic floor plan endpoints
	plans := api.PathPrefix("/v1/dynamic-floor-plans").Subrouter()
	plans.HandleFunc("", handlers.SaveFloorPlan(s.Store)).Methods("POST")
	plans.HandleFunc("", handlers.GetFloorPlanData(s.Store)).Methods("GET")
	plans.HandleFunc("", handlers.DeleteFloorPlan(s.Store)).Methods("DELETE")
	plans.HandleFunc("/exists", handlers.FloorPlanExists(s.Store)).Methods("GET")
	plans.HandleFunc("/metadata", handlers.GetFloorPlanMetadata(s.Store)).Methods("GET")
	plans.HandleFunc("/office-locations", handlers.ListOfficeLocations(s.Store)).Methods("GET")
	plans.HandleFunc("/buildings", handlers.ListBuildings(s.Store)).Methods("GET")
	plans.HandleFunc("/floors", handlers.ListFloors(s.Store)).Methods("GET")
	plans.HandleFunc("/booking-status", handlers.GetFloorBookingStatus(s.Store)).Methods("GET")

	// Floor plan view endpoints
	api.HandleFunc("/floorplan", handlers.GetFloorPlan(s.Presenter)).Methods("GET")
	api.HandleFunc("/floorplan/save", handlers.SaveFloorPlan(s.Store)).Methods("POST")

	// Serve static frontend files
	if s.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.StaticDir)))
	}

	return cors.New(cors.Options{
		AllowedOrigins:   s.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(r)
}
