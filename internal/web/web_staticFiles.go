package web

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// allowedMethods is the Allow header for every path this server answers
const allowedMethods = "GET, HEAD, OPTIONS"

// errNotServable marks paths that resolve to nothing we would serve (missing or a directory)
var errNotServable = errors.New("not a servable file")

// faviconHandler serves the configured favicon from the static root
func (s *WebServer) faviconHandler(c *gin.Context) {
	s.serveStaticFile(c, s.config.FaviconPath)
}

// staticFallback handles every request no route matched: files under the
// static root are served by URL path, everything else is a 404.
func (s *WebServer) staticFallback(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		s.serveStaticFile(c, c.Request.URL.Path)
	case http.MethodOptions:
		s.optionsHandler(c)
	default:
		s.methodNotAllowed(c)
	}
}

// optionsHandler answers OPTIONS with the allowed methods and no body
func (s *WebServer) optionsHandler(c *gin.Context) {
	c.Header("Allow", allowedMethods)
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
}

func (s *WebServer) methodNotAllowed(c *gin.Context) {
	c.Header("Allow", allowedMethods)
	s.renderError(c, http.StatusMethodNotAllowed, c.Request.Method+" not allowed")
}

// serveStaticFile streams relPath from the static root. http.ServeContent
// takes care of Range, If-Modified-Since and If-None-Match.
func (s *WebServer) serveStaticFile(c *gin.Context, relPath string) {
	if strings.HasSuffix(relPath, "/") {
		s.renderError(c, http.StatusNotFound, "directory path "+relPath)
		return
	}
	name := path.Clean("/" + relPath)

	f, err := s.staticFS.Open(name)
	if err != nil {
		s.staticOpenError(c, name, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.staticOpenError(c, name, err)
		return
	}
	if info.IsDir() {
		s.staticOpenError(c, name, errNotServable)
		return
	}

	if ctype := contentTypeFor(name); ctype != "" {
		c.Header("Content-Type", ctype)
	}
	c.Header("Cache-Control", s.cacheControl())
	c.Header("ETag", fmt.Sprintf(`"%x-%x"`, info.ModTime().UnixNano(), info.Size()))
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
}

func (s *WebServer) staticOpenError(c *gin.Context, name string, err error) {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errNotServable) {
		s.renderError(c, http.StatusNotFound, fmt.Sprintf("static %s: %v", name, err))
		return
	}
	s.renderError(c, http.StatusInternalServerError, fmt.Sprintf("static %s: %v", name, err))
}

func (s *WebServer) cacheControl() string {
	if s.config.CacheMaxAge <= 0 {
		return "no-cache"
	}
	return "public, max-age=" + strconv.Itoa(s.config.CacheMaxAge)
}

// extraContentTypes covers extensions the mime package may not know on every platform
var extraContentTypes = map[string]string{
	".ico":   "image/x-icon",
	".css":   "text/css; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".mjs":   "text/javascript; charset=utf-8",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".html":  "text/html; charset=utf-8",
	".xml":   "application/xml",
	".txt":   "text/plain; charset=utf-8",
	".json":  "application/json",
	".glb":   "model/gltf-binary",
	".gltf":  "model/gltf+json",
}

// contentTypeFor returns the MIME type for a file name. An empty result
// leaves the decision to content sniffing in http.ServeContent.
func contentTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ctype, ok := extraContentTypes[ext]; ok {
		return ctype
	}
	return mime.TypeByExtension(ext)
}
