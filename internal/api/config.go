// Package api hosts the HTTP server: middleware, health and metrics
// endpoints. JSON endpoints live in the v2 subpackage.
package api

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/huam/biocurate/internal/conf"
	"github.com/huam/biocurate/internal/errors"
)

const (
	DefaultReadTimeout = 30 * time.Second
	// An image search downloads and identifies every scan of a code in one request
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	defaultBodyLimit = 32 << 20
)

// Config is the listener and middleware configuration of a Server
type Config struct {
	Host           string
	Port           string
	AllowedOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// BodyLimit bounds dataset uploads, in echo notation ("32M")
	BodyLimit string

	MetricsEnabled bool
	Debug          bool
}

func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       bodyLimit(defaultBodyLimit),
		MetricsEnabled:  true,
	}
}

// ConfigFromSettings maps the webserver and metrics sections onto a Config
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	if settings == nil {
		return cfg
	}

	web := settings.WebServer
	cfg.Host = web.Host
	cfg.Port = web.Port
	if len(web.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = web.AllowedOrigins
	}
	if web.MaxUploadBytes > 0 {
		cfg.BodyLimit = bodyLimit(web.MaxUploadBytes)
	}
	cfg.MetricsEnabled = settings.Metrics.Enabled
	cfg.Debug = web.Debug || settings.Debug
	return cfg
}

// bodyLimit renders n bytes in the notation middleware.BodyLimit parses
func bodyLimit(n int64) string {
	switch {
	case n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + "M"
	case n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + "K"
	default:
		return strconv.FormatInt(n, 10) + "B"
	}
}

// Validate rejects a Config the listener could not use
func (c *Config) Validate() error {
	var problem string
	if port, err := strconv.Atoi(c.Port); err != nil || port < 0 || port > 65535 {
		problem = fmt.Sprintf("port must be between 0 and 65535, got %q", c.Port)
	} else if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		problem = "read and write timeouts must be positive"
	}
	if problem == "" {
		return nil
	}
	return errors.Newf("invalid server configuration: %s", problem).
		Component("api").
		Category(errors.CategoryConfiguration).
		Build()
}

// Address is the listen address, e.g. ":8080" or "127.0.0.1:8080"
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}
