package web

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestIDMiddleware reuses an inbound X-Request-Id or mints a new one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// ApacheLogFormat logs requests in combined log format plus the request id.
// The status code is coloured when gin writes to a terminal.
func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		requestID, _ := param.Keys[requestIDKey].(string)
		var statusColor, resetColor string
		if param.IsOutputColor() {
			statusColor, resetColor = param.StatusCodeColor(), param.ResetColor()
		}
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %s%d%s %d "%s" "%s" %s`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			statusColor, param.StatusCode, resetColor,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
			requestID,
		)
	})
}

// SecurityMiddleware sets the usual hardening headers.
// HSTS and the https redirect only apply when this process terminates TLS itself
// (not when running behind a reverse proxy like nginx with SSL).
func (s *WebServer) SecurityMiddleware() gin.HandlerFunc {
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	if s.config.SSL || s.config.UseAutocert() {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	return secure.New(secureConfig)
}

// RateLimitMiddleware rejects clients that exhausted their token bucket
func (s *WebServer) RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			if s.metrics != nil {
				s.metrics.RateLimitDropped.Inc()
			}
			s.renderError(c, http.StatusTooManyRequests, "rate limit exceeded for "+c.ClientIP())
			return
		}
		c.Next()
	}
}
