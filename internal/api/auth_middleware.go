package api

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// gin 上下文键
const (
	ContextIdentity = "identity"
	ContextUserID   = "user_id"
)

// SessionCookie 会话 cookie 的写入参数
type SessionCookie struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// NewSessionCookie 从配置构建会话 cookie 参数
// SameSite=None 要求 Secure,否则浏览器会丢弃 cookie
func NewSessionCookie(cfg config.SessionConfig) SessionCookie {
	cookie := SessionCookie{Name: cfg.CookieName, Secure: cfg.Secure, SameSite: http.SameSiteLaxMode}
	if cookie.Name == "" {
		cookie.Name = "od_tracker_session"
	}
	switch strings.ToLower(cfg.SameSite) {
	case "strict":
		cookie.SameSite = http.SameSiteStrictMode
	case "none":
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}
	return cookie
}

// Set 写入会话 cookie,Max-Age 取会话剩余有效期
func (s SessionCookie) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(math.Ceil(time.Until(expiresAt).Seconds()))
	if maxAge <= 0 {
		s.Clear(c)
		return
	}
	c.SetSameSite(s.SameSite)
	c.SetCookie(s.Name, token, maxAge, "/", "", s.Secure, true)
}

// Clear 清除会话 cookie
func (s SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(s.SameSite)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

// Token 读取请求中的会话 token
func (s SessionCookie) Token(c *gin.Context) string {
	token, err := c.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return token
}

// RequireAuth 会话认证中间件
// 认证成功后续期会话并刷新 cookie
func RequireAuth(sessions service.SessionService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.Token(c)
		if token == "" {
			Error(c, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		identity, sess, err := sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			if service.KindOf(err) == service.KindUnauthorized {
				cookie.Clear(c)
			}
			HandleError(c, err)
			return
		}

		cookie.Set(c, token, sess.ExpiresAt)
		c.Set(ContextIdentity, identity)
		c.Set(ContextUserID, identity.UserID)
		c.Next()
	}
}

// RequireAdmin 管理员权限中间件,需在 RequireAuth 之后使用
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			Error(c, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		if identity.Role != model.RoleAdmin {
			Error(c, http.StatusForbidden, "Forbidden", "")
			return
		}
		c.Next()
	}
}

// CurrentIdentity 获取当前请求的身份
func CurrentIdentity(c *gin.Context) *service.Identity {
	value, ok := c.Get(ContextIdentity)
	if !ok {
		return nil
	}
	identity, _ := value.(*service.Identity)
	return identity
}
