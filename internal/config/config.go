package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// ErrInvalid is wrapped by every resolution error so callers can tell a bad
// configuration apart from other startup failures.
var ErrInvalid = errors.New("invalid configuration")

// Config holds environment-driven configuration. It is resolved once at
// startup and passed explicitly to the components that need it.
type Config struct {
	Environment    string
	DatabaseURL    string
	Host           string
	Port           int
	Debug          bool
	AllowedOrigins []string
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// WildcardOrigins reports whether any origin is allowed.
func (c Config) WildcardOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

type modeDefaults struct {
	prefix      string
	databaseURL string
	host        string
	port        int
	debug       bool
	origins     []string
}

var defaults = map[string]modeDefaults{
	EnvDevelopment: {
		prefix:      "DEV_",
		databaseURL: "sqlite://./beartrak_search.db",
		host:        "127.0.0.1",
		port:        8000,
		debug:       true,
		origins:     []string{"*"},
	},
	EnvProduction: {
		prefix:      "PROD_",
		databaseURL: "postgres://postgres@localhost:5432/beartrak_search?sslmode=disable",
		host:        "0.0.0.0",
		port:        8000,
		origins:     []string{},
	},
	EnvTest: {
		prefix:      "TEST_",
		databaseURL: "sqlite://:memory:",
		host:        "127.0.0.1",
		port:        8001,
		origins:     []string{"*"},
	},
}

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads an optional .env file and resolves configuration from the
// process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	return Resolve(os.LookupEnv)
}

// Resolve builds a Config from the given lookup. A generic override (HOST,
// PORT, DATABASE_URL) wins over the mode-specific variable, which wins over
// the mode default.
func Resolve(lookup LookupFunc) (Config, error) {
	env := strings.ToLower(get(lookup, "ENVIRONMENT", EnvDevelopment))
	d, ok := defaults[env]
	if !ok {
		return Config{}, fmt.Errorf("%w: ENVIRONMENT must be one of development, production, test (got %q)", ErrInvalid, env)
	}

	cfg := Config{
		Environment: env,
		DatabaseURL: first(lookup, d.databaseURL, "DATABASE_URL", d.prefix+"DATABASE_URL"),
		Host:        first(lookup, d.host, "HOST", d.prefix+"HOST"),
	}

	portStr := first(lookup, strconv.Itoa(d.port), "PORT", d.prefix+"PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("%w: port must be between 1 and 65535 (got %q)", ErrInvalid, portStr)
	}
	cfg.Port = port

	cfg.Debug = d.debug
	if v, ok := lookupNonEmpty(lookup, "DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: DEBUG must be a boolean (got %q)", ErrInvalid, v)
		}
		cfg.Debug = debug
	}

	cfg.AllowedOrigins = append([]string{}, d.origins...)
	if v, ok := lookupNonEmpty(lookup, "CORS_ORIGINS"); ok {
		origins, err := ParseOrigins(v)
		if err != nil {
			return Config{}, err
		}
		cfg.AllowedOrigins = origins
	}

	if err := ValidateDatabaseURL(cfg.DatabaseURL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseOrigins decodes a JSON list of origins such as
// `["https://a.example","https://b.example"]`.
func ParseOrigins(raw string) ([]string, error) {
	var origins []string
	if err := json.Unmarshal([]byte(raw), &origins); err != nil {
		return nil, fmt.Errorf("%w: CORS_ORIGINS must be a JSON list of strings: %v", ErrInvalid, err)
	}
	if origins == nil {
		return nil, fmt.Errorf("%w: CORS_ORIGINS must be a JSON list, got null", ErrInvalid)
	}
	for i, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, fmt.Errorf("%w: CORS_ORIGINS entry %d is empty", ErrInvalid, i)
		}
		if o != "*" && !validOrigin(o) {
			return nil, fmt.Errorf("%w: CORS_ORIGINS entry %q must look like scheme://host[:port]", ErrInvalid, o)
		}
		origins[i] = o
	}
	if len(origins) > 1 && slices.Contains(origins, "*") {
		return nil, fmt.Errorf("%w: CORS_ORIGINS may contain \"*\" only as its sole entry", ErrInvalid)
	}
	return origins, nil
}

// ValidateDatabaseURL accepts postgres:// and sqlite:// locations.
func ValidateDatabaseURL(raw string) error {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		if _, err := pq.ParseURL(raw); err != nil {
			return fmt.Errorf("%w: DATABASE_URL: %v", ErrInvalid, err)
		}
		return nil
	case strings.HasPrefix(raw, "sqlite://"):
		if strings.TrimPrefix(raw, "sqlite://") == "" {
			return fmt.Errorf("%w: DATABASE_URL: sqlite path is empty", ErrInvalid)
		}
		return nil
	default:
		return fmt.Errorf("%w: DATABASE_URL scheme must be postgres:// or sqlite:// (got %q)", ErrInvalid, raw)
	}
}

func validOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && (u.Path == "" || u.Path == "/") && u.RawQuery == "" && u.Fragment == ""
}

func get(lookup LookupFunc, key, def string) string {
	if v, ok := lookupNonEmpty(lookup, key); ok {
		return v
	}
	return def
}

func first(lookup LookupFunc, def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := lookupNonEmpty(lookup, k); ok {
			return v
		}
	}
	return def
}

func lookupNonEmpty(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
