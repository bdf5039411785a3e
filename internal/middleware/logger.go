package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
)

var httpLog = logging.MustGetLogger("http")

// RequestLogger logs one line per request once the handler finishes. For
// notification streams that is when the client disconnects.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		line := "%s %s %d %s %s"
		args := []interface{}{c.Request.Method, path, status, time.Since(start).Round(time.Millisecond), c.ClientIP()}
		switch {
		case status >= 500:
			httpLog.Errorf(line, args...)
		case status >= 400:
			httpLog.Warningf(line, args...)
		default:
			httpLog.Infof(line, args...)
		}
	}
}
