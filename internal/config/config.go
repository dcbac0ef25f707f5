// Package config loads runtime configuration from environment
// variables.  Deployment-critical values (database, JWT secret) are
// required and abort startup when missing; operational knobs fall back
// to development defaults.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds every runtime setting the server needs.  Token TTLs and
// the bcrypt cost are ints because they feed time.Duration math and the
// bcrypt API directly.
type Config struct {
	Env            string // APP_ENV, e.g. "dev" or "prod"
	Port           string // APP_PORT, HTTP listen port
	DBUser         string // DB_USER
	DBPass         string // DB_PASS, empty allowed for local setups
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	JWTSecret      string // JWT_SECRET, HS256 signing key
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST
}

// Load builds a Config from the environment.  Missing required
// variables terminate the process with a fatal log.
func Load() Config {
	return Config{
		Env:            envOr("APP_ENV", "dev"),
		Port:           envOr("APP_PORT", "8080"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   intOr("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: intOr("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     intOr("BCRYPT_COST", 12),
	}
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
