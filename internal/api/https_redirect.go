package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HTTPSRedirectMiddleware HTTPS 重定向中间件
func HTTPSRedirectMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || IsHTTPS(c) {
			c.Next()
			return
		}

		host := c.Request.Host
		if host == "" {
			host = "localhost"
		}

		// 307 保留原请求方法和请求体
		c.Redirect(http.StatusTemporaryRedirect, "https://"+host+c.Request.URL.RequestURI())
		c.Abort()
	}
}

// IsHTTPS 检查请求是否通过 HTTPS
func IsHTTPS(c *gin.Context) bool {
	// 托管平台在代理层终止 TLS
	if strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		return true
	}
	if c.GetHeader("X-Forwarded-SSL") == "on" {
		return true
	}
	return c.Request.TLS != nil
}
