package handlers

import (
	"log"
	"net/http"

	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
	Version     string `json:"version,omitempty"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
			Version:     version,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Migrations       []string `json:"migrations"`
	BookingCount     int      `json:"booking_count"`
	ActiveUsers      int      `json:"active_users"`
	OfficeLocations  int      `json:"office_locations"`
	WebSocketClients int      `json:"websocket_clients"`
}

// Status returns a handler that provides system status information.
func Status(
	db *storage.DB,
	bookings *storage.BookingRepository,
	users *storage.UserRepository,
	plans *storage.FloorPlanRepository,
	hub *websocket.Hub,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := StatusResponse{WebSocketClients: hub.ClientCount()}

		migrations, err := storage.AppliedMigrations(ctx, db)
		if err != nil {
			log.Printf("Failed to list migrations: %v", err)
		}
		resp.Migrations = migrations

		count, err := bookings.Count(ctx)
		if err != nil {
			log.Printf("Failed to count bookings: %v", err)
		}
		resp.BookingCount = count

		active, err := users.ListActive(ctx)
		if err != nil {
			log.Printf("Failed to list active users: %v", err)
		}
		resp.ActiveUsers = len(active)

		offices, err := plans.ListOfficeLocations(ctx)
		if err != nil {
			log.Printf("Failed to list office locations: %v", err)
		}
		resp.OfficeLocations = len(offices)

		writeJSON(w, http.StatusOK, resp)
	}
}

// BookingServiceHealth reports that the booking service is up together with
// the number of stored bookings.
func BookingServiceHealth(bookings *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := bookings.Count(r.Context())
		if err != nil {
			log.Printf("Failed to count bookings: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, APIResponse{
				Success: false,
				Message: "Booking service is unhealthy",
			})
			return
		}

		writeSuccess(w, "Booking service is healthy", map[string]any{
			"status":       "UP",
			"bookingCount": count,
		})
	}
}
