package admin

import (
	"time"

	"github.com/danmuck/gemctl/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const authOutcomeKey = "admin.auth"

// Outcomes recorded for each admin request. Routes that never consult the
// token report authOpen.
const (
	authOpen   = "open"
	authOK     = "ok"
	authDenied = "denied"
)

// observeRequests logs and counts every admin request, tagged with the service
// ID and how the bearer token check went.
func observeRequests(service string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		outcome := c.GetString(authOutcomeKey)
		if outcome == "" {
			outcome = authOpen
		}
		observability.RecordHTTPRequest(service, c.Request.Method, route, status, outcome, elapsed)

		event := logger.Debug()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		event.
			Str("service", service).
			Str("method", c.Request.Method).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("auth", outcome).
			Dur("duration", elapsed).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("admin_request")
	}
}
