package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_TokenService_IssueAndExtract(t *testing.T) {
	svc := NewTokenService([]byte("secret"), time.Hour)

	token, expires, err := svc.Issue("u1", "u1@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	userID, err := svc.ExtractUserID("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", claims.Email)
}

func Test_TokenService_Rejects(t *testing.T) {
	svc := NewTokenService([]byte("secret"), time.Hour)
	token, _, err := svc.Issue("u1", "")
	require.NoError(t, err)

	expired := NewTokenService([]byte("secret"), time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Issue("u1", "")
	require.NoError(t, err)

	forged, _, err := NewTokenService([]byte("other"), time.Hour).Issue("u1", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "empty", header: ""},
		{name: "no_bearer_prefix", header: token},
		{name: "bearer_only", header: "Bearer "},
		{name: "garbage", header: "Bearer abc.def.ghi"},
		{name: "expired", header: "Bearer " + expiredToken},
		{name: "wrong_secret", header: "Bearer " + forged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ExtractUserID(tt.header)

			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
