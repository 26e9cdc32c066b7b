// Package config loads server settings from flags, the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
)

// Config holds the runtime settings of the server.
type Config struct {
	Addr        string
	DataDir     string
	StaticDir   string
	HealthCheck bool

	JWTSecret string
	TokenTTL  time.Duration

	// Requests per second and burst allowed per client address
	RateLimit float64
	RateBurst int

	// Cron spec with a seconds field for the daily booking digest
	DigestSchedule string
	AllowedOrigins []string
	Timezone       string
}

// DBPath returns the SQLite database file inside the data directory.
func (c *Config) DBPath() string {
	return strings.TrimRight(c.DataDir, "/") + "/desk-reserve.db"
}

// Location resolves Timezone. An empty timezone means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

var digestParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrHelp is returned by Load when usage was requested.
var ErrHelp = pflag.ErrHelp

// Load builds the configuration. Values come from, in increasing priority:
// built-in defaults, environment variables (a .env file in the working
// directory is loaded first if present) and command-line flags.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := &Config{}

	flagSet := pflag.NewFlagSet("desk-reserve", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Addr, "addr", envString("ADDR", ":8080"), "HTTP server address")
	flagSet.StringVar(&cfg.DataDir, "data", envString("DATA_DIR", "./data"), "data directory for the SQLite database")
	flagSet.StringVar(&cfg.StaticDir, "static", envString("STATIC_DIR", "./static"), "directory for static frontend files")
	flagSet.BoolVar(&cfg.HealthCheck, "health-check", false, "run health check and exit")
	flagSet.StringVar(&cfg.JWTSecret, "jwt-secret", envString("JWT_SECRET", ""), "secret used to sign access tokens")
	flagSet.DurationVar(&cfg.TokenTTL, "token-ttl", envDuration("TOKEN_TTL", 72*time.Hour), "lifetime of issued access tokens")
	flagSet.Float64Var(&cfg.RateLimit, "rate-limit", envFloat("RATE_LIMIT", 20), "requests per second allowed per client")
	flagSet.IntVar(&cfg.RateBurst, "rate-burst", envInt("RATE_BURST", 40), "request burst allowed per client")
	flagSet.StringVar(&cfg.DigestSchedule, "digest-schedule",
		envString("DIGEST_SCHEDULE", "0 0 7 * * *"), "cron spec (with seconds) for publishing the daily booking digest")
	flagSet.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins",
		envList("ALLOWED_ORIGINS", []string{"*"}), "CORS allowed origins")
	flagSet.StringVar(&cfg.Timezone, "timezone", envString("TZ", ""), "IANA timezone used to decide which day is today")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token-ttl must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate-limit and rate-burst must be positive")
	}
	if _, err := digestParser.Parse(c.DigestSchedule); err != nil {
		return fmt.Errorf("invalid digest-schedule %q: %w", c.DigestSchedule, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: ignoring invalid %s=%q", key, v)
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Warning: ignoring invalid %s=%q", key, v)
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Warning: ignoring invalid %s=%q", key, v)
	}
	return def
}

func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
