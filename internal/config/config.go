// Package config provides configuration management for go-voxel.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// Default listener settings, same as the development server this replaces
	DefaultHost       = "127.0.0.1"
	DefaultListenPort = 5000

	DefaultStaticDir   = "static"
	DefaultTemplateDir = "templates"
	DefaultFaviconPath = "images/favicon.ico" // relative to the static root

	DefaultAutocertCacheDir = "data/autocert"
	DefaultRateLimitBurst   = 20
	DefaultShutdownTimeout  = 10 * time.Second
)

// WebConfig holds web server configuration.
// It is built once at startup and handed to the server by value.
type WebConfig struct {
	Host       string `env:"VOXEL_WEB_HOST"`
	ListenPort int    `env:"VOXEL_WEB_PORT"`

	StaticDir   string `env:"VOXEL_STATIC_DIR"`
	TemplateDir string `env:"VOXEL_TEMPLATE_DIR"`
	FaviconPath string `env:"VOXEL_FAVICON_PATH"`
	CacheMaxAge int    `env:"VOXEL_CACHE_MAX_AGE"` // seconds, 0 sends "no-cache"

	SSL              bool     `env:"VOXEL_SSL"`
	CertFile         string   `env:"VOXEL_SSL_CERT"`
	KeyFile          string   `env:"VOXEL_SSL_KEY"`
	AutocertHosts    []string `env:"VOXEL_AUTOCERT_HOSTS" envSeparator:","`
	AutocertCacheDir string   `env:"VOXEL_AUTOCERT_CACHE"`

	TrustedProxies  []string `env:"VOXEL_TRUSTED_PROXIES" envSeparator:","`
	ReloadTemplates bool     `env:"VOXEL_RELOAD_TEMPLATES"`

	RateLimitRPS   float64 `env:"VOXEL_RATELIMIT_RPS"` // <= 0 disables the limiter
	RateLimitBurst int     `env:"VOXEL_RATELIMIT_BURST"`

	MetricsAddr string `env:"VOXEL_METRICS_ADDR"` // empty disables the metrics listener
	PprofAddr   string `env:"VOXEL_PPROF_ADDR"`

	ShutdownTimeout time.Duration `env:"VOXEL_SHUTDOWN_TIMEOUT"`
	Debug           bool          `env:"VOXEL_DEBUG"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() WebConfig {
	return WebConfig{
		Host:             DefaultHost,
		ListenPort:       DefaultListenPort,
		StaticDir:        DefaultStaticDir,
		TemplateDir:      DefaultTemplateDir,
		FaviconPath:      DefaultFaviconPath,
		AutocertCacheDir: DefaultAutocertCacheDir,
		TrustedProxies:   []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		ReloadTemplates:  true,
		RateLimitBurst:   DefaultRateLimitBurst,
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}

// Load builds the configuration from defaults, an optional dotenv file and
// the process environment. Variables already set in the environment win
// over the dotenv file.
func Load(envFile string) (WebConfig, error) {
	cfg := NewDefaultConfig()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("load %s: %w", envFile, err)
			}
		} else {
			log.Printf("[CONFIG]: Loaded environment from %s", envFile)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the host:port the web server listens on
func (c WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.ListenPort)
}

// UseAutocert reports whether certificates are obtained via ACME
func (c WebConfig) UseAutocert() bool {
	return len(c.AutocertHosts) > 0
}

// Validate checks the configuration for values the server cannot run with.
func (c WebConfig) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", c.ListenPort)
	}
	if c.StaticDir == "" {
		return errors.New("static dir must be set")
	}
	if c.TemplateDir == "" {
		return errors.New("template dir must be set")
	}
	if c.FaviconPath == "" || path.IsAbs(c.FaviconPath) || strings.HasPrefix(path.Clean(c.FaviconPath), "..") {
		return fmt.Errorf("favicon path %q must be relative to the static dir", c.FaviconPath)
	}
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("cache max age must not be negative: %d", c.CacheMaxAge)
	}
	if c.SSL && !c.UseAutocert() && (c.CertFile == "" || c.KeyFile == "") {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	if c.UseAutocert() && c.AutocertCacheDir == "" {
		return errors.New("autocert enabled but no cache dir set")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1 when rps is %g", c.RateLimitRPS)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}
