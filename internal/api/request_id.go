package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware 请求 ID 中间件
// 复用客户端传入的 X-Request-ID,否则生成新的 UUID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		// 审计日志从 context 读取请求来源
		ctx := service.WithRequestInfo(c.Request.Context(), service.RequestInfo{
			RequestID: requestID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
