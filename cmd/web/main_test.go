package main

import (
	"reflect"
	"testing"

	"github.com/go-while/go-voxel/internal/config"
)

func TestSplitHosts(t *testing.T) {
	got := splitHosts(" a.example.org, ,b.example.org,")
	want := []string{"a.example.org", "b.example.org"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if splitHosts("") != nil {
		t.Fatal("empty input should give no hosts")
	}
}

func TestApplyFlags(t *testing.T) {
	webport, staticDir, autocertHosts, rateLimitRPS = 8443, "/srv/static", "example.org", 2.5
	t.Cleanup(func() {
		webport, staticDir, autocertHosts, rateLimitRPS = 0, "", "", 0
	})

	cfg := config.NewDefaultConfig()
	applyFlags(&cfg)

	if cfg.ListenPort != 8443 || cfg.StaticDir != "/srv/static" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if !cfg.SSL || !cfg.UseAutocert() {
		t.Fatal("-autocert should enable SSL via ACME")
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != config.DefaultRateLimitBurst {
		t.Fatalf("rate limit = %g/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	// unset flags leave config alone
	if cfg.TemplateDir != config.DefaultTemplateDir || cfg.Host != config.DefaultHost {
		t.Fatalf("unset flags changed config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should be valid: %v", err)
	}
}
