package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	Logger "visitor-pass-service/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID 为每个请求注入关联ID，并写入日志上下文
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(Logger.ContextWithRequestID(c.Request.Context(), reqID))

		c.Next()
	}
}

// AccessLog 请求结束后记录一行访问日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		Logger.WithContext(c.Request.Context()).Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
