package config

import "time"

// SessionConfig controls the visitor session cookie and its storage.
type SessionConfig struct {
	CookieName string        // cookie carrying the session id
	TTL        time.Duration // idle lifetime of a session
	Prefix     string        // Redis key prefix for sessions
	LockPrefix string        // Redis key prefix for locks
	LockTTL    time.Duration // lease of a Redis lock
	Secure     bool          // mark the cookie Secure (HTTPS only)
}

func LoadSessionConfig() SessionConfig {
	cfg := SessionConfig{
		CookieName: envStr("SESSION_COOKIE", "rb_session"),
		TTL:        envDur("SESSION_TTL", 2*time.Hour),
		Prefix:     envStr("SESSION_PREFIX", "sess"),
		LockPrefix: envStr("LOCK_PREFIX", "lock"),
		LockTTL:    envDur("LOCK_TTL", 3*time.Minute),
		Secure:     envBool("SESSION_SECURE", false),
	}
	// a lock must outlive a write that is still waiting to be mined
	if cfg.LockTTL < 30*time.Second {
		cfg.LockTTL = 30 * time.Second
	}
	return cfg
}
