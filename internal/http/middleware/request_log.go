package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-coach/internal/pkg/apierr"
	"github.com/yungbote/interview-coach/internal/pkg/ctxutil"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

// quietPaths are probe routes that are only logged when they fail.
var quietPaths = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
}

// RequestLogger writes one line per request once the handler chain returns.
// The level follows the status class.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if log == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if quietPaths[route] && status < 400 {
			return
		}

		kv := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
			"latency", time.Since(start).String(),
		}
		ctx := c.Request.Context()
		if td := ctxutil.GetTraceData(ctx); td != nil {
			kv = append(kv, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			kv = append(kv, "user_id", rd.UserID)
		}
		if last := c.Errors.Last(); last != nil {
			if ae := apierr.As(last.Err); ae != nil {
				kv = append(kv, "code", ae.Code)
			}
			kv = append(kv, "error", last.Err)
		}

		switch {
		case status >= 500:
			log.Error("request failed", kv...)
		case status >= 400:
			log.Warn("request rejected", kv...)
		default:
			log.Info("request served", kv...)
		}
	}
}
