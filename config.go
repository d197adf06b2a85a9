package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/pelletier/go-toml/v2"
)

// Config holds every setting of the server. Values come from the defaults,
// then the optional TOML file, then the environment.
type Config struct {
	ListenAddr string `toml:"listen_addr"`
	StoreURL   string `toml:"store_url"`
	CacheTTL   string `toml:"cache_ttl"`
	LogLevel   string `toml:"log_level"`
	Auth       Auth   `toml:"auth"`
}

type Auth struct {
	JWTSecret         string `toml:"jwt_secret"`
	AdminUsername     string `toml:"admin_username"`
	AdminPasswordHash string `toml:"admin_password_hash"`
	TokenLifetime     string `toml:"token_lifetime"`
}

// defaultPasswordHash is the bcrypt hash of the stock admin password.
// Deployments override it with ADMIN_PASSWORD or admin_password_hash.
const defaultPasswordHash = "$2a$10$btuYOHaeDMra.cF9xj3X9ePue8lT0R9G7wqNKDJQ3U8IELF9zOgPe"

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":3000",
		StoreURL:   "file://data/songs.md",
		CacheTTL:   "5s",
		LogLevel:   "info",
		Auth: Auth{
			JWTSecret:         "your-secret-key-change-this",
			AdminUsername:     "admin",
			AdminPasswordHash: defaultPasswordHash,
			TokenLifetime:     "24h",
		},
	}
}

// LoadConfig reads path when it is non-empty. A missing file is an error
// only when the path was given explicitly.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("config file %s does not exist", path)
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"LISTEN_ADDR":    &c.ListenAddr,
		"DB_URL":         &c.StoreURL,
		"CACHE_TTL":      &c.CacheTTL,
		"LOG_LEVEL":      &c.LogLevel,
		"JWT_SECRET":     &c.Auth.JWTSecret,
		"ADMIN_USERNAME": &c.Auth.AdminUsername,
		"ADMIN_PASSWORD": &c.Auth.AdminPasswordHash,
		"TOKEN_LIFETIME": &c.Auth.TokenLifetime,
	}
	for name, field := range overrides {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("listen_addr must be set"))
	}
	if u, err := url.Parse(c.StoreURL); err != nil {
		errs = append(errs, fmt.Errorf("store_url: %w", err))
	} else {
		switch u.Scheme {
		case "", "file", "sqlite", "sqlite3", "postgres", "postgresql":
		default:
			errs = append(errs, fmt.Errorf("store_url: unsupported scheme %q", u.Scheme))
		}
	}
	if _, err := c.CacheTTLDuration(); err != nil {
		errs = append(errs, fmt.Errorf("cache_ttl: %w", err))
	}
	if _, err := c.Auth.TokenLifetimeDuration(); err != nil {
		errs = append(errs, fmt.Errorf("auth.token_lifetime: %w", err))
	}
	if _, ok := parseLogLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret must be set"))
	}
	if c.Auth.AdminUsername == "" {
		errs = append(errs, errors.New("auth.admin_username must be set"))
	}
	if c.Auth.AdminPasswordHash == "" {
		errs = append(errs, errors.New("auth.admin_password_hash must be set"))
	}
	return errors.Join(errs...)
}

func (c Config) CacheTTLDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.CacheTTL)
	if err == nil && d < 0 {
		return 0, fmt.Errorf("negative duration %s", c.CacheTTL)
	}
	return d, err
}

func (a Auth) TokenLifetimeDuration() (time.Duration, error) {
	d, err := time.ParseDuration(a.TokenLifetime)
	if err == nil && d <= 0 {
		return 0, fmt.Errorf("lifetime must be positive, got %s", a.TokenLifetime)
	}
	return d, err
}

func (c Config) Level() log.Lvl {
	lvl, _ := parseLogLevel(c.LogLevel)
	return lvl
}

func parseLogLevel(v string) (log.Lvl, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return log.DEBUG, true
	case "info", "":
		return log.INFO, true
	case "warn", "warning":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	}
	return log.INFO, false
}

// newLogger builds a component logger at the configured level.
func newLogger(prefix string, cfg Config) *log.Logger {
	l := log.New(prefix)
	l.SetLevel(cfg.Level())
	return l
}
