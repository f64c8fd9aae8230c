package web

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrTemplateNotFound is returned when a template file does not exist in the template dir
var ErrTemplateNotFound = errors.New("template not found")

// templateStore parses page templates from disk and keeps the parsed result
// until the directory changes. Failed parses are never cached.
type templateStore struct {
	dir   string
	funcs template.FuncMap

	mux   sync.RWMutex
	cache map[string]*template.Template

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func newTemplateStore(dir string) *templateStore {
	return &templateStore{
		dir: dir,
		funcs: template.FuncMap{
			// static assets are served from the URL root
			"static": func(name string) string {
				return path.Join("/", name)
			},
		},
		cache: make(map[string]*template.Template),
	}
}

// Lookup returns the parsed template for name
func (ts *templateStore) Lookup(name string) (*template.Template, error) {
	ts.mux.RLock()
	tmpl, ok := ts.cache[name]
	ts.mux.RUnlock()
	if ok {
		return tmpl, nil
	}

	file := filepath.Join(ts.dir, filepath.FromSlash(path.Clean("/"+name)))
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, err
	}
	tmpl, err := template.New(filepath.Base(file)).Funcs(ts.funcs).ParseFiles(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	ts.mux.Lock()
	ts.cache[name] = tmpl
	ts.mux.Unlock()
	return tmpl, nil
}

// Invalidate drops all parsed templates
func (ts *templateStore) Invalidate() {
	ts.mux.Lock()
	ts.cache = make(map[string]*template.Template)
	ts.mux.Unlock()
}

// Watch invalidates the cache whenever something in the template dir changes
func (ts *templateStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(ts.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", ts.dir, err)
	}
	ts.watcher = watcher
	ts.done = make(chan struct{})

	go func() {
		defer close(ts.done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
				log.Printf("[TEMPLATES]: %s changed (%s), reloading templates", event.Name, event.Op)
				ts.Invalidate()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[TEMPLATES]: Watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher if one is running
func (ts *templateStore) Close() error {
	if ts.watcher == nil {
		return nil
	}
	err := ts.watcher.Close()
	<-ts.done
	ts.watcher = nil
	return err
}
