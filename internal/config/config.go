// Package config loads the server's runtime settings once at startup.
//
// Sources, lowest precedence first:
//  1. built-in defaults
//  2. an optional .env file (loaded with godotenv; never overrides real env)
//  3. process environment variables
//
// Load validates the result and fails with ONE error naming every missing or
// malformed setting, so a misconfigured deploy is fixed in a single pass.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory" // ephemeral, for local runs only
)

// Config holds everything the server needs to start.
type Config struct {
	Port           int           // PORT
	LogLevel       slog.Level    // LOG_LEVEL: debug, info, warn, error
	RequestTimeout time.Duration // REQUEST_TIMEOUT: deadline for each request's store calls
	BcryptCost     int           // BCRYPT_COST
	DB             DBConfig
}

// DBConfig describes the relational store.
//
// Path is only used by the sqlite driver. Host, User, Password and Name are
// only required by the postgres driver.
type DBConfig struct {
	Driver   string // DB_DRIVER
	Path     string // DB_PATH
	Host     string // DB_HOST
	Port     int    // DB_PORT
	User     string // DB_USER
	Password string // DB_PASSWORD
	Name     string // DB_NAME
	SSLMode  string // DB_SSLMODE
	PoolSize int    // DB_POOL_SIZE: max open connections; extra callers queue
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:           3000,
		LogLevel:       slog.LevelInfo,
		RequestTimeout: 10 * time.Second,
		BcryptCost:     10,
		DB: DBConfig{
			Driver:   DriverSQLite,
			Path:     "data/messages.db",
			Port:     5432,
			SSLMode:  "disable",
			PoolSize: 10,
		},
	}
}

// Load reads envFiles (missing files are skipped, ".env" when none given),
// then the process environment, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function such as
// os.LookupEnv. Tests pass a map-backed lookup instead.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()
	p := parser{lookup: lookup}

	p.integer("PORT", &cfg.Port)
	p.level("LOG_LEVEL", &cfg.LogLevel)
	p.duration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	p.integer("BCRYPT_COST", &cfg.BcryptCost)

	p.str("DB_DRIVER", &cfg.DB.Driver)
	p.str("DB_PATH", &cfg.DB.Path)
	p.str("DB_HOST", &cfg.DB.Host)
	p.integer("DB_PORT", &cfg.DB.Port)
	p.str("DB_USER", &cfg.DB.User)
	p.str("DB_PASSWORD", &cfg.DB.Password)
	p.str("DB_NAME", &cfg.DB.Name)
	p.str("DB_SSLMODE", &cfg.DB.SSLMode)
	p.integer("DB_POOL_SIZE", &cfg.DB.PoolSize)

	errs := append(p.errs, cfg.Validate())
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and the fields the chosen driver requires.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.DB.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("DB_POOL_SIZE must be at least 1, got %d", c.DB.PoolSize))
	}

	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		for _, req := range []struct{ name, value string }{
			{"DB_HOST", c.DB.Host},
			{"DB_USER", c.DB.User},
			{"DB_PASSWORD", c.DB.Password},
			{"DB_NAME", c.DB.Name},
		} {
			if req.value == "" {
				errs = append(errs, fmt.Errorf("%s is required for the postgres driver", req.name))
			}
		}
		if c.DB.Port < 1 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.DB.Port))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q, %q or %q, got %q",
			DriverSQLite, DriverPostgres, DriverMemory, c.DB.Driver))
	}

	return errors.Join(errs...)
}

// DSN renders the data source name for the configured driver.
func (d DBConfig) DSN() string {
	switch d.Driver {
	case DriverSQLite:
		return d.Path
	case DriverMemory:
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// parser collects every malformed value instead of stopping at the first.
type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return
	}
	*dst = n
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be a duration like 10s, got %q", key, v))
		return
	}
	*dst = d
}

func (p *parser) level(key string, dst *slog.Level) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	if err := dst.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be debug, info, warn or error, got %q", key, v))
	}
}
