// Web server for go-voxel: serves the voxel painter page, its favicon and static assets
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-while/go-voxel/internal/config"
	"github.com/go-while/go-voxel/internal/web"
)

var (
	// command-line flags
	envFile        string
	webhost        string
	webport        int
	staticDir      string
	templateDir    string
	webssl         bool
	webcertFile    string
	webkeyFile     string
	autocertHosts  string
	autocertCache  string
	metricsAddr    string
	pprofAddr      string
	rateLimitRPS   float64
	rateLimitBurst int
	debug          bool
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion

	flag.StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment (missing file is ignored)")
	flag.StringVar(&webhost, "host", "", "Web server listen host (default: 127.0.0.1)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: 5000)")
	flag.StringVar(&staticDir, "static", "", "Static asset root (default: ./static)")
	flag.StringVar(&templateDir, "templates", "", "Template directory (default: ./templates)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.StringVar(&autocertHosts, "autocert", "", "comma separated hostnames to request certificates for via ACME (implies SSL)")
	flag.StringVar(&autocertCache, "autocert-cache", "", "directory for cached ACME certificates (default: data/autocert)")
	flag.StringVar(&metricsAddr, "metrics", "", "listen address for the prometheus /metrics endpoint (disabled if empty)")
	flag.StringVar(&pprofAddr, "pprof", "", "listen address for pprof (disabled if empty)")
	flag.Float64Var(&rateLimitRPS, "ratelimit-rps", 0, "requests per second per client IP (0 disables rate limiting)")
	flag.IntVar(&rateLimitBurst, "ratelimit-burst", 0, "burst size per client IP (default: 20)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	log.Printf("Starting go-voxel: Web Server (version: %s)", appVersion)

	webConfig, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("[WEB]: Error loading config: %v", err)
	}
	applyFlags(&webConfig)

	if err := webConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}
	log.Printf("[WEB]: Using WEB configuration: %#v", webConfig)

	setupGin(webConfig.Debug)

	if webConfig.PprofAddr != "" {
		startProfiler(webConfig.PprofAddr)
	}

	server, err := web.NewServer(webConfig)
	if err != nil {
		log.Fatalf("[WEB]: Failed to create web server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[WEB]: Server starting. Press Ctrl+C to gracefully shutdown...")
	if err := server.Start(ctx); err != nil {
		log.Fatalf("[WEB]: Web server failed: %v", err)
	}
} // end main

// applyFlags overrides config values with command-line flags that were set
func applyFlags(webConfig *config.WebConfig) {
	if webhost != "" {
		webConfig.Host = webhost
	}
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	}
	if staticDir != "" {
		webConfig.StaticDir = staticDir
	}
	if templateDir != "" {
		webConfig.TemplateDir = templateDir
	}
	if webssl {
		webConfig.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		webConfig.CertFile = webcertFile
	}
	if webkeyFile != "" {
		webConfig.KeyFile = webkeyFile
	}
	if autocertHosts != "" {
		webConfig.AutocertHosts = splitHosts(autocertHosts)
		webConfig.SSL = true
	}
	if autocertCache != "" {
		webConfig.AutocertCacheDir = autocertCache
	}
	if metricsAddr != "" {
		webConfig.MetricsAddr = metricsAddr
	}
	if pprofAddr != "" {
		webConfig.PprofAddr = pprofAddr
	}
	if rateLimitRPS > 0 {
		webConfig.RateLimitRPS = rateLimitRPS
	}
	if rateLimitBurst > 0 {
		webConfig.RateLimitBurst = rateLimitBurst
	}
	if debug {
		webConfig.Debug = true
	}
}

func splitHosts(raw string) []string {
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
