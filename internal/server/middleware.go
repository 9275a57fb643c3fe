package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// bodyLimit caps request bodies at limit bytes. Reads past it fail with
// *http.MaxBytesError.
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// admit holds one browser session slot for the rest of the request. A
// client that goes away while queued gets 503.
func (s *Server) admit(c *gin.Context) {
	if err := s.sessions.Acquire(c.Request.Context(), 1); err != nil {
		s.logger.Warn("Request abandoned while waiting for a browser session", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "No browser session available",
		})
		return
	}
	defer s.sessions.Release(1)
	c.Next()
}
