// Package web provides the HTTP server for go-voxel
package web

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-voxel/internal/config"
)

const contentTypeHTML = "text/html; charset=utf-8"

// TemplateData represents common template data
type TemplateData struct {
	Title      string
	AppVersion string
}

// getBaseTemplateData creates a TemplateData struct with the fields every page uses.
// Nothing request-dependent goes in here: rendering the same template twice
// must produce the same bytes.
func (s *WebServer) getBaseTemplateData(title string) TemplateData {
	return TemplateData{
		Title:      title,
		AppVersion: config.AppVersion,
	}
}

// renderTemplate renders a template from the template dir.
// The output is buffered so a failing template still gets a clean 500.
func (s *WebServer) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	tmpl, err := s.templates.Lookup(templateName)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Sprintf("template %s: %v", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Sprintf("execute template %s: %v", templateName, err))
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}

// renderError renders the generic error page and aborts the handler chain
func (s *WebServer) renderError(c *gin.Context, statusCode int, errstring string) {
	if statusCode >= http.StatusInternalServerError {
		log.Printf("[ERROR]: %s %s: %d - %s", c.Request.Method, c.Request.URL.Path, statusCode, errstring)
	} else if s.config.Debug {
		log.Printf("[WEB]: %s %s: %d - %s", c.Request.Method, c.Request.URL.Path, statusCode, errstring)
	}

	body, err := renderErrorPage(statusCode)
	if err != nil {
		log.Printf("Error rendering error template: %v", err)
		c.String(statusCode, "%d %s", statusCode, http.StatusText(statusCode))
		c.Abort()
		return
	}
	c.Data(statusCode, contentTypeHTML, body)
	c.Abort()
}
