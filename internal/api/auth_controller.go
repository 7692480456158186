package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/surya-d-naidu/UniOD/internal/metrics"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// AuthController 注册、登录和会话控制器
type AuthController struct {
	users    service.UserService
	sessions service.SessionService
	cookie   SessionCookie
}

// NewAuthController 创建认证控制器
func NewAuthController(users service.UserService, sessions service.SessionService, cookie SessionCookie) *AuthController {
	return &AuthController{
		users:    users,
		sessions: sessions,
		cookie:   cookie,
	}
}

// Register 学生注册
func (a *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.users.Register(c.Request.Context(), service.RegisterInput{
		RegistrationNumber: req.RegistrationNumber,
		Name:               req.Name,
		Mobile:             req.Mobile,
		Password:           req.Password,
	})
	if err != nil {
		// 学号重复按参数错误返回,与前端约定一致
		var svcErr *service.Error
		if errors.As(err, &svcErr) && svcErr.Kind == service.KindConflict {
			BadRequest(c, svcErr.Message)
			return
		}
		HandleError(c, err)
		return
	}

	Created(c, newUserResponse(user))
}

// Login 登录并下发会话 cookie
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	user, err := a.users.Authenticate(ctx, req.RegistrationNumber, req.Password)
	if err != nil {
		metrics.RecordLogin(loginResult(err))
		HandleError(c, err)
		return
	}

	token, sess, err := a.sessions.Create(ctx, user)
	if err != nil {
		metrics.RecordLogin(loginResult(err))
		HandleError(c, err)
		return
	}

	metrics.RecordLogin("success")
	a.cookie.Set(c, token, sess.ExpiresAt)
	Success(c, newUserResponse(user))
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, service.ErrPendingApproval):
		return "pending"
	case errors.Is(err, service.ErrUnauthorized):
		return "invalid"
	case errors.Is(err, service.ErrTransient):
		return "unavailable"
	default:
		return "error"
	}
}

// Logout 注销当前会话
func (a *AuthController) Logout(c *gin.Context) {
	if err := a.sessions.Destroy(c.Request.Context(), a.cookie.Token(c)); err != nil {
		HandleError(c, err)
		return
	}
	a.cookie.Clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// CurrentUser 获取当前登录用户
func (a *AuthController) CurrentUser(c *gin.Context) {
	identity := CurrentIdentity(c)
	user, err := a.users.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		// 会话仍在但账号已被删除
		if errors.Is(err, service.ErrNotFound) {
			Error(c, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		HandleError(c, err)
		return
	}
	Success(c, newUserResponse(user))
}
