package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/desk-reserve/backend/internal/api/middleware"
	"github.com/desk-reserve/backend/internal/auth"
	"github.com/desk-reserve/backend/internal/storage"
)

// TokenRequest asks for an access token for a directory user.
type TokenRequest struct {
	Email string `json:"email"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
}

// IssueToken issues an access token for an active user looked up by email.
func IssueToken(tokens *auth.TokenService, users *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		email := strings.TrimSpace(req.Email)
		if email == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "email is required")
			return
		}

		user, err := users.GetByEmail(r.Context(), email)
		if err != nil {
			log.Printf("Failed to look up user %s: %v", email, err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to issue token")
			return
		}
		if user == nil || !user.Active {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Unknown or inactive user")
			return
		}

		token, expires, err := tokens.Issue(user.ID, user.Email)
		if err != nil {
			log.Printf("Failed to issue token for %s: %v", user.ID, err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to issue token")
			return
		}

		writeSuccess(w, "Token issued successfully", TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expires,
			UserID:      user.ID,
			Email:       user.Email,
			Name:        user.Name,
		})
	}
}

// VerifyToken reports the user identified by the request's bearer token.
func VerifyToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Missing bearer token")
			return
		}

		writeSuccess(w, "Token is valid", map[string]any{
			"valid":  true,
			"userId": userID,
		})
	}
}
