// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/desk-reserve/backend/internal/api/middleware"
	"github.com/desk-reserve/backend/internal/booking"
	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// anonymousUser owns bookings made without a token or an explicit user id.
const anonymousUser = "anonymous"

// APIResponse is the envelope of successful responses.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// writeBookingError maps engine errors onto HTTP statuses.
func writeBookingError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
	case errors.Is(err, booking.ErrConflict):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
	case errors.Is(err, booking.ErrForbidden):
		middleware.WriteError(w, http.StatusForbidden, middleware.ErrForbidden, err.Error())
	default:
		log.Printf("Failed to %s: %v", action, err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to "+action)
	}
}

// requestUserID returns the authenticated user, then fallback, then the
// anonymous user.
func requestUserID(r *http.Request, fallback string) string {
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		return userID
	}
	if fallback != "" {
		return fallback
	}
	return anonymousUser
}

// BookingResponse is a booking enriched with its owner's directory entry.
type BookingResponse struct {
	models.Booking
	UserName  *string `json:"userName"`
	UserEmail *string `json:"userEmail"`
}

// BookingList is the listing payload used by booking endpoints.
type BookingList struct {
	Bookings []BookingResponse `json:"bookings"`
	Count    int               `json:"count"`
}

// bookingEnricher resolves booking owners, looking each user up once.
type bookingEnricher struct {
	users *storage.UserRepository
	cache map[string]*models.User
}

func newBookingEnricher(users *storage.UserRepository) *bookingEnricher {
	return &bookingEnricher{users: users, cache: make(map[string]*models.User)}
}

func (e *bookingEnricher) one(ctx context.Context, b models.Booking) BookingResponse {
	resp := BookingResponse{Booking: b}

	u, seen := e.cache[b.UserID]
	if !seen && e.users != nil {
		var err error
		u, err = e.users.GetByID(ctx, b.UserID)
		if err != nil {
			log.Printf("Failed to look up user %s: %v", b.UserID, err)
		}
		e.cache[b.UserID] = u
	}
	if u != nil {
		resp.UserName = &u.Name
		resp.UserEmail = &u.Email
	}
	return resp
}

func (e *bookingEnricher) list(ctx context.Context, bookings []models.Booking) BookingList {
	out := BookingList{Bookings: make([]BookingResponse, 0, len(bookings)), Count: len(bookings)}
	for _, b := range bookings {
		out.Bookings = append(out.Bookings, e.one(ctx, b))
	}
	return out
}
