package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
)

// Config holds the core runtime configuration.  Each field corresponds to
// an environment variable.  Optional concerns (ledger, booking capacity,
// cache, rate limit, sessions, broker) have their own Load*Config helpers
// with defaults.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign admin JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing
	AdminEmail     string // admin account seeded at start-up (optional)
	AdminPassword  string // password for AdminEmail (optional)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),                       // environment (dev/test/prod)
		Port:           must("APP_PORT"),                      // port to bind the HTTP server
		DBUser:         must("DB_USER"),                       // database user
		DBPass:         os.Getenv("DB_PASS"),                  // database password (empty allowed)
		DBHost:         must("DB_HOST"),                       // database host
		DBPort:         must("DB_PORT"),                       // database port
		DBName:         must("DB_NAME"),                       // database name
		JWTSecret:      must("JWT_SECRET"),                    // secret used for signing JWTs
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),    // TTL for access tokens in minutes
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),   // TTL for refresh tokens in days
		BcryptCost:     envInt("BCRYPT_COST", 12),             // bcrypt cost factor
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),              // seed admin login
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),           // seed admin password
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
