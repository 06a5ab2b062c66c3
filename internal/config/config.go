package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultSessionSecret ships in the defaults so a fresh checkout starts; it
// is refused once cookies are marked secure.
const DefaultSessionSecret = "change-me-in-production-please!!"

// Config is read from the environment (optionally seeded from a .env file).
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DBDSN    string `envconfig:"DB_DSN" default:"marketfront.db"`
	LogFile  string `envconfig:"LOG_FILE" default:"./marketfront.log"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://localhost:9192"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	// RequestTimeout bounds each inbound request, backend calls included.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	// SessionSecret keys the at-rest encryption of bearer tokens.
	SessionSecret string        `envconfig:"SESSION_SECRET" default:"change-me-in-production-please!!"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`

	ImageSlots      int           `envconfig:"IMAGE_SLOTS" default:"10"`
	MaxImageBytes   int64         `envconfig:"MAX_IMAGE_BYTES" default:"5242880"`
	MaxBodyBytes    int           `envconfig:"MAX_BODY_BYTES" default:"8388608"`
	DraftTTL        time.Duration `envconfig:"DRAFT_TTL" default:"72h"`
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"10m"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.SessionSecret == DefaultSessionSecret {
		log.Printf("[warn] SESSION_SECRET is the built-in default; set your own before deploying")
	}
	log.Printf("[config] PORT=%s DB_DSN=%s BACKEND_URL=%s IMAGE_SLOTS=%d LOG_FILE=%s",
		cfg.Port, cfg.DBDSN, cfg.BackendURL, cfg.ImageSlots, cfg.LogFile)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL must be set")
	}
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters (got %d)", len(c.SessionSecret))
	}
	if c.CookieSecure && c.SessionSecret == DefaultSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be changed from the default when COOKIE_SECURE is on")
	}
	if c.RequestTimeout < c.BackendTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must not be shorter than BACKEND_TIMEOUT (%s)", c.RequestTimeout, c.BackendTimeout)
	}
	if c.ImageSlots < 1 || c.ImageSlots > 30 {
		return fmt.Errorf("IMAGE_SLOTS must be between 1 and 30 (got %d)", c.ImageSlots)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	if int64(c.MaxBodyBytes) < c.MaxImageBytes {
		return fmt.Errorf("MAX_BODY_BYTES (%d) must fit one image (%d)", c.MaxBodyBytes, c.MaxImageBytes)
	}
	return nil
}
