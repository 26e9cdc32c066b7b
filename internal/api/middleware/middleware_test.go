package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desk-reserve/backend/internal/api/middleware"
	"github.com/desk-reserve/backend/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		w.Header().Set("X-User", userID)
		w.WriteHeader(http.StatusOK)
	})
}

func Test_RateLimiter_RejectsBurstOverflow(t *testing.T) {
	// setup
	limiter := middleware.NewRateLimiter(0.001, 2)
	defer limiter.Stop()
	handler := limiter.Limit(okHandler())

	serve := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// act & assert
	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:1002"), "same host shares a bucket")
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1000"))
}

func Test_OptionalAuth(t *testing.T) {
	tokens := auth.NewTokenService([]byte("secret"), time.Hour)
	valid, _, err := tokens.Issue("u1", "u1@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantUser string
	}{
		{"no header", "", http.StatusOK, ""},
		{"valid token", "Bearer " + valid, http.StatusOK, "u1"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic dTE6cHc=", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// setup
			handler := middleware.OptionalAuth(tokens)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			// act
			handler.ServeHTTP(rec, req)

			// assert
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
		})
	}
}

func Test_ErrorRecovery_ReturnsInternalError(t *testing.T) {
	// setup
	handler := middleware.ErrorRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	// act
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// assert
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"internal_error"`)
}

func Test_Logging_EchoesRequestID(t *testing.T) {
	// setup
	handler := middleware.Logging(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	// act
	handler.ServeHTTP(rec, req)

	// assert
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}
