package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// quietPaths are polled by probes and scrapers and only logged at debug level.
var quietPaths = map[string]struct{}{
	"/api/v1/health": {},
	"/metrics":       {},
}

// RequestLogger logs basic request information along with the request_id.
// Server errors are logged at error level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := GetRequestLogger(c).WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if q := SanitizeQuery(c.Request.URL.RawQuery); q != "" {
			entry = entry.WithField("query", q)
		}

		switch _, quiet := quietPaths[c.Request.URL.Path]; {
		case c.Writer.Status() >= 500:
			entry.Error("handled request")
		case quiet:
			entry.Debug("handled request")
		default:
			entry.Info("handled request")
		}
	}
}
