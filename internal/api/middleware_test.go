package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/surya-d-naidu/UniOD/internal/api"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// TestRequestIDMiddleware_GenerateID 测试生成请求 ID
func TestRequestIDMiddleware_GenerateID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		info := service.RequestInfoFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString("request_id"), "from_ctx": info.RequestID})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get("X-Request-ID")
	assert.Len(t, requestID, 36)
	assert.JSONEq(t, `{"request_id":"`+requestID+`","from_ctx":"`+requestID+`"}`, w.Body.String())
}

// TestRequestIDMiddleware_UseExistingID 测试使用已有的请求 ID
func TestRequestIDMiddleware_UseExistingID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "custom-request-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "custom-request-id", w.Header().Get("X-Request-ID"))
}

// TestCORSMiddleware 测试跨域
func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.CORSMiddleware(config.Default().CORS))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// 白名单中的源允许携带凭证
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	// 未知源不回显
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// 预检请求
	req = httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

// TestRateLimitMiddleware_PerIP 测试按 IP 限流
func TestRateLimitMiddleware_PerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.RateLimitMiddleware(0.001, 1))
	router.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1235"))
	// 其他 IP 不受影响
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}

// TestRateLimitMiddleware_Disabled 测试关闭限流
func TestRateLimitMiddleware_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.RateLimitMiddleware(0, 0))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// TestSecurityHeadersMiddleware 测试安全头
func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.SecurityHeadersMiddleware(false))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

// TestHTTPSRedirectMiddleware 测试 HTTPS 重定向
func TestHTTPSRedirectMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(api.HTTPSRedirectMiddleware(true))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/test?a=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/test?a=1", w.Header().Get("Location"))

	// 代理已终止 TLS
	req = httptest.NewRequest(http.MethodGet, "http://example.com/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestHandleError 测试业务错误到状态码的映射
func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		err       error
		status    int
		message   string
		retryable bool
	}{
		{"unauthorized", service.Unauthorized("Unauthorized"), http.StatusUnauthorized, "Unauthorized", false},
		{"forbidden", service.Forbidden("Forbidden"), http.StatusForbidden, "Forbidden", false},
		{"not found", service.NotFound("OD request not found"), http.StatusNotFound, "OD request not found", false},
		{"conflict", service.Conflict("already decided"), http.StatusConflict, "already decided", false},
		{"validation", service.Validation("Invalid ID"), http.StatusBadRequest, "Invalid ID", false},
		{"transient", &service.Error{Kind: service.KindTransient, Message: "Database temporarily unavailable, please retry", Err: context.DeadlineExceeded}, http.StatusServiceUnavailable, "Database temporarily unavailable, please retry", true},
		{"plain error", context.Canceled, http.StatusInternalServerError, "Internal server error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/test", func(c *gin.Context) {
				api.HandleError(c, tt.err)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.status, w.Code)
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.retryable, body.Retryable)
			assert.NotContains(t, w.Body.String(), "context canceled")
		})
	}
}

// TestHealthAndMetrics 测试健康检查和指标端点
func TestHealthAndMetrics(t *testing.T) {
	env := newAPIEnv(t, config.ApprovalModeManual)

	w := env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)

	env.adminCookie(t)
	w = env.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `uniod_logins_total{result="success"}`)
	assert.Contains(t, w.Body.String(), "uniod_database_connections_max 1")

	w = env.do(http.MethodGet, "/no-such-route", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
