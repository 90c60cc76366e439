// Package config builds the immutable server configuration from the
// environment. The struct is constructed once at startup and passed by
// reference; nothing mutates it afterwards.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the server. Cookie attributes live here
// so that session and remember cookies are issued with one consistent
// policy instead of per-handler flag values.
type Config struct {
	Port    int    `env:"CM_PORT" envDefault:"8080"`
	DataDir string `env:"CM_DATA_DIR" envDefault:"./data"`

	// InstitutionDomain is the email domain registrations must belong to.
	InstitutionDomain string `env:"CM_INSTITUTION_DOMAIN" envDefault:"nyu.edu"`

	SessionCookie   string        `env:"CM_SESSION_COOKIE" envDefault:"cm_session"`
	RememberCookie  string        `env:"CM_REMEMBER_COOKIE" envDefault:"cm_remember"`
	CSRFCookie      string        `env:"CM_CSRF_COOKIE" envDefault:"cm_csrf"`
	SessionTTL      time.Duration `env:"CM_SESSION_TTL" envDefault:"24h"`
	RememberTTL     time.Duration `env:"CM_REMEMBER_TTL" envDefault:"720h"`
	ResetTokenTTL   time.Duration `env:"CM_RESET_TOKEN_TTL" envDefault:"1h"`
	CookieSecure    bool          `env:"CM_COOKIE_SECURE" envDefault:"false"`
	RememberKeyFile string        `env:"CM_REMEMBER_KEY_FILE"`

	// StoreTimeout bounds every identity/session store round trip. A
	// lookup past the deadline fails closed.
	StoreTimeout time.Duration `env:"CM_STORE_TIMEOUT" envDefault:"3s"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SessionTTL <= 0 || cfg.RememberTTL <= 0 || cfg.ResetTokenTTL <= 0 {
		return nil, fmt.Errorf("ttl values must be positive")
	}
	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("store timeout must be positive")
	}
	return cfg, nil
}
