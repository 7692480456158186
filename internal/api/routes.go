package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/service"
	"gorm.io/gorm"
)

// Dependencies 路由依赖
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Users    service.UserService
	Sessions service.SessionService
	Ods      service.OdRequestService
	Export   service.ExportService
	Stats    service.StatisticsService
	Audit    service.AuditLogService
}

// SetupRoutes 配置路由
func SetupRoutes(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(HTTPSRedirectMiddleware(cfg.Server.ForceHTTPS))
	router.Use(SecurityHeadersMiddleware(cfg.Server.ForceHTTPS))
	router.Use(CORSMiddleware(cfg.CORS))

	// 健康检查和指标
	router.GET("/health", NewHealthController(deps.DB).Check)
	router.GET("/metrics", MetricsHandler(deps.DB))

	cookie := NewSessionCookie(cfg.Session)
	authController := NewAuthController(deps.Users, deps.Sessions, cookie)
	odController := NewOdRequestController(deps.Ods, cfg.Location())
	adminController := NewAdminController(deps.Users, deps.Ods, deps.Export, deps.Stats, deps.Audit)

	apiGroup := router.Group("/api")
	{
		// 无需登录
		limited := apiGroup.Group("", RateLimitMiddleware(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst))
		limited.POST("/register", authController.Register)
		limited.POST("/login", authController.Login)
		apiGroup.POST("/logout", authController.Logout)

		// 需要登录
		authed := apiGroup.Group("", RequireAuth(deps.Sessions, cookie))
		authed.GET("/user", authController.CurrentUser)
		authed.GET("/od-requests", odController.List)
		authed.POST("/od-requests", odController.Create)
		authed.PUT("/od-requests/:id", odController.Update)
		authed.DELETE("/od-requests/:id", odController.Delete)
		authed.POST("/confirm-submission", odController.ConfirmSubmission)

		// 管理端
		admin := authed.Group("/admin", RequireAdmin())
		admin.GET("/students", adminController.ListStudents)
		admin.GET("/pending-students", adminController.ListPendingStudents)
		admin.GET("/users", adminController.ListUsers)
		admin.GET("/users/:id", adminController.GetUser)
		admin.POST("/approve-student/:id", adminController.ApproveStudent)
		admin.POST("/deny-student/:id", adminController.DenyStudent)
		admin.GET("/od-requests", adminController.ListOdRequests)
		admin.POST("/approve-od/:id", adminController.ApproveOd)
		admin.POST("/reject-od/:id", adminController.RejectOd)
		admin.POST("/clear-od-data", adminController.ClearOdData)
		admin.GET("/export-od-report", adminController.ExportReport)
		admin.GET("/stats", adminController.Stats)
		admin.GET("/audit-logs", adminController.ListAuditLogs)
	}

	// 未匹配的路由返回 JSON 格式的 404
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "Route not found", "")
	})

	return router
}
