package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) requestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, "route", route)
		}

		if status >= 500 {
			s.logger.Error("request complete", fields...)
			return
		}
		s.logger.Debug("request complete", fields...)
	}
}
