// Package web provides the HTTP server for go-voxel
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-voxel/internal/config"
	"golang.org/x/crypto/acme/autocert"
)

// ErrStaticRootMissing is returned by NewServer when the static dir is unusable
var ErrStaticRootMissing = errors.New("static root missing")

// WebServer represents the web server
type WebServer struct {
	Router    *gin.Engine
	StartTime time.Time // Track server start time for uptime calculations

	config    config.WebConfig
	staticFS  http.FileSystem
	templates *templateStore
	limiter   *IPRateLimiter
	metrics   *Metrics
	closeOnce sync.Once
}

// route binds a method and path pattern to a handler
type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// NewServer creates a new web server instance.
// webconfig is copied; later changes by the caller are not seen by the server.
func NewServer(webconfig config.WebConfig) (*WebServer, error) {
	webconfig.AutocertHosts = slices.Clone(webconfig.AutocertHosts)
	webconfig.TrustedProxies = slices.Clone(webconfig.TrustedProxies)

	info, err := os.Stat(webconfig.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaticRootMissing, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStaticRootMissing, webconfig.StaticDir)
	}

	router := gin.New()
	// Routing stays exact: no trailing slash or case fixing redirects,
	// unknown paths go to the static fallback, wrong methods get a 405.
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = true

	// Configure Gin to trust reverse proxy headers
	if err := router.SetTrustedProxies(webconfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	server := &WebServer{
		Router:    router,
		config:    webconfig,
		staticFS:  http.Dir(webconfig.StaticDir),
		templates: newTemplateStore(webconfig.TemplateDir),
		metrics:   NewMetrics(),
	}

	if webconfig.ReloadTemplates {
		if err := server.templates.Watch(); err != nil {
			// not fatal: templates are still parsed on demand
			log.Printf("[TEMPLATES]: Warning: template reload disabled: %v", err)
		} else {
			log.Printf("[TEMPLATES]: Watching %s for changes", webconfig.TemplateDir)
		}
	}

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		server.renderError(c, http.StatusInternalServerError, fmt.Sprintf("panic: %v", recovered))
	}))
	router.Use(RequestIDMiddleware())
	router.Use(server.ApacheLogFormat())
	router.Use(server.SecurityMiddleware())
	if webconfig.RateLimitRPS > 0 {
		server.limiter = NewIPRateLimiter(webconfig.RateLimitRPS, webconfig.RateLimitBurst)
		server.limiter.StartJanitor(time.Minute)
		router.Use(server.RateLimitMiddleware(server.limiter))
		log.Printf("[RATELIMIT]: %g req/s per client, burst %d", webconfig.RateLimitRPS, webconfig.RateLimitBurst)
	}
	router.Use(server.metrics.Middleware())

	server.setupRoutes()
	return server, nil
}

// routes returns the route table. It is built once and never changes.
func (s *WebServer) routes() []route {
	var table []route
	for _, r := range []struct {
		path    string
		handler gin.HandlerFunc
	}{
		{"/", s.homePage},
		{"/favicon.ico", s.faviconHandler},
	} {
		table = append(table,
			route{http.MethodGet, r.path, r.handler},
			route{http.MethodHead, r.path, r.handler},
			route{http.MethodOptions, r.path, s.optionsHandler},
		)
	}
	return table
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	for _, r := range s.routes() {
		s.Router.Handle(r.method, r.path, r.handler)
	}
	// everything else: files from the static root or 404
	s.Router.NoRoute(s.staticFallback)
	s.Router.NoMethod(s.methodNotAllowed)
}

// Config returns a copy of the server configuration
func (s *WebServer) Config() config.WebConfig {
	return s.config
}

// GetPort returns the listening port from the config
func (s *WebServer) GetPort() int {
	return s.config.ListenPort
}

// Metrics returns the server's prometheus collectors
func (s *WebServer) Metrics() *Metrics {
	return s.metrics
}

// Start runs the web server until ctx is cancelled, then shuts it down gracefully.
func (s *WebServer) Start(ctx context.Context) error {
	s.StartTime = time.Now()
	defer s.Close()

	servers := []*http.Server{s.newHTTPServer(s.config.Addr(), s.Router)}
	errChan := make(chan error, 3)
	serve := func(name string, run func() error) {
		go func() {
			if err := run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("%s server: %w", name, err)
			}
		}()
	}

	primary := servers[0]
	switch {
	case s.config.UseAutocert():
		manager := s.newAutocertManager()
		primary.TLSConfig = manager.TLSConfig()
		// ACME http-01 challenges arrive on port 80, everything else there is redirected
		challenge := s.newHTTPServer(":80", manager.HTTPHandler(nil))
		servers = append(servers, challenge)
		serve("acme challenge", challenge.ListenAndServe)
		log.Printf("[WEB]: Starting HTTPS server on %s (autocert for %v)", primary.Addr, s.config.AutocertHosts)
		serve("web", func() error { return primary.ListenAndServeTLS("", "") })
	case s.config.SSL:
		log.Printf("[WEB]: Starting HTTPS server on %s", primary.Addr)
		serve("web", func() error { return primary.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile) })
	default:
		log.Printf("[WEB]: Starting HTTP server on %s", primary.Addr)
		serve("web", primary.ListenAndServe)
	}

	if s.config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		metricsServer := s.newHTTPServer(s.config.MetricsAddr, mux)
		servers = append(servers, metricsServer)
		log.Printf("[WEB]: Serving metrics on %s/metrics", s.config.MetricsAddr)
		serve("metrics", metricsServer.ListenAndServe)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Printf("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case runErr = <-errChan:
		log.Printf("[WEB]: %v", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	for _, hs := range servers {
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WEB]: Error shutting down %s: %v", hs.Addr, err)
		}
	}
	log.Printf("[WEB]: Graceful shutdown completed")
	return runErr
}

// Close releases background resources: template watcher and rate limiter janitor
func (s *WebServer) Close() {
	s.closeOnce.Do(func() {
		if err := s.templates.Close(); err != nil {
			log.Printf("[TEMPLATES]: Error closing watcher: %v", err)
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
	})
}

func (s *WebServer) newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *WebServer) newAutocertManager() *autocert.Manager {
	return &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(s.config.AutocertHosts...),
		Cache:      autocert.DirCache(s.config.AutocertCacheDir),
	}
}
