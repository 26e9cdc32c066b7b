package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load(nil)

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "0 0 7 * * *", cfg.DigestSchedule)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "./data/desk-reserve.db", cfg.DBPath())
}

func Test_Load_FlagsOverrideEnvironment(t *testing.T) {
	// arrange
	t.Setenv("ADDR", ":9000")
	t.Setenv("DATA_DIR", "/var/lib/desks/")
	t.Setenv("RATE_BURST", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TZ", "Asia/Kolkata")

	// act
	cfg, err := Load([]string{"--addr", ":9100", "--digest-schedule", "@every 1h"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "/var/lib/desks/desk-reserve.db", cfg.DBPath())
	assert.Equal(t, 5, cfg.RateBurst)
	assert.Equal(t, "@every 1h", cfg.DigestSchedule)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func Test_Load_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown_flag", args: []string{"--nope"}},
		{name: "zero_ttl", args: []string{"--token-ttl", "0s"}},
		{name: "negative_rate", args: []string{"--rate-limit", "-1"}},
		{name: "bad_digest_schedule", args: []string{"--digest-schedule", "0 7 * *"}},
		{name: "bad_timezone", args: []string{"--timezone", "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)

			assert.Error(t, err)
		})
	}
}
