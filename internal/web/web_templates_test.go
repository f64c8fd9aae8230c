package web

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-while/go-voxel/internal/config"
)

func TestTemplateStoreLookup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), []byte(`<a href="{{static "js/main.js"}}">{{.}}</a>`))
	ts := newTemplateStore(dir)

	tmpl, err := ts.Lookup("index.html")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, "<b>"); err != nil {
		t.Fatal(err)
	}
	// html/template escapes data
	if want := `<a href="/js/main.js">&lt;b&gt;</a>`; buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	if _, err := ts.Lookup("missing.html"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
	// names cannot climb out of the template dir
	writeFile(t, filepath.Join(filepath.Dir(dir), "outside.html"), []byte("x"))
	if _, err := ts.Lookup("../outside.html"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestTemplateStoreCachesUntilInvalidated(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.html")
	writeFile(t, file, []byte("v1"))
	ts := newTemplateStore(dir)

	render := func() string {
		t.Helper()
		tmpl, err := ts.Lookup("index.html")
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, nil); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}

	if got := render(); got != "v1" {
		t.Fatalf("got %q", got)
	}
	writeFile(t, file, []byte("v2"))
	if got := render(); got != "v1" {
		t.Fatalf("cached template should still be v1, got %q", got)
	}
	ts.Invalidate()
	if got := render(); got != "v2" {
		t.Fatalf("after invalidate got %q, want v2", got)
	}
}

func TestTemplateReloadOnChange(t *testing.T) {
	env := newTestServer(t, func(c *config.WebConfig) { c.ReloadTemplates = true })
	file := filepath.Join(env.templateDir, "index.html")
	writeFile(t, file, []byte("before"))

	if rec := env.do(http.MethodGet, "/", nil); rec.Body.String() != "before" {
		t.Fatalf("got %q", rec.Body.String())
	}
	writeFile(t, file, []byte("after"))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if rec := env.do(http.MethodGet, "/", nil); rec.Body.String() == "after" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("template change was not picked up")
}

func TestTemplateWatchMissingDir(t *testing.T) {
	ts := newTemplateStore(filepath.Join(t.TempDir(), "nope"))
	if err := ts.Watch(); err == nil {
		ts.Close()
		t.Fatal("expected error watching a missing dir")
	}
	// Close without a running watcher is a no-op
	if err := ts.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewServerWithoutTemplateDir(t *testing.T) {
	// the template dir is not required at startup, only the static root
	env := newTestServer(t, func(c *config.WebConfig) {
		c.TemplateDir = filepath.Join(os.TempDir(), "voxel-no-such-templates")
		c.ReloadTemplates = true
	})
	if rec := env.do(http.MethodGet, "/", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
