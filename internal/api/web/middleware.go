package web

import (
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
)

const requestIDKey = "request_id"

// requestLogger присваивает запросу id, пишет строку лога и отправляет ошибки в Sentry.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.Must(uuid.NewV4()).String()
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			requestIDKey: id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
		})
		if v, ok := c.Get("input"); ok {
			entry = entry.WithField("input", v)
		}
		if v, ok := c.Get("detections"); ok {
			entry = entry.WithField("detections", v)
		}

		if len(c.Errors) == 0 {
			entry.Info("[Web] Request served")
			return
		}
		for _, e := range c.Errors {
			raven.CaptureError(e.Err, map[string]string{requestIDKey: id})
		}
		entry.WithError(c.Errors.Last()).Error("[Web] Request failed")
	}
}
