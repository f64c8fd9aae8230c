// Package web provides the HTTP server for go-voxel
package web

import (
	"github.com/gin-gonic/gin"
)

const (
	indexTemplate = "index.html"
	indexTitle    = "Voxel Painter"
)

// homePage renders the front page. The request itself is never consulted.
func (s *WebServer) homePage(c *gin.Context) {
	s.renderTemplate(c, indexTemplate, s.getBaseTemplateData(indexTitle))
}
