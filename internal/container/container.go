package container

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/surya-d-naidu/UniOD/internal/api"
	"github.com/surya-d-naidu/UniOD/internal/auth"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"github.com/surya-d-naidu/UniOD/internal/service"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理数据库连接、仓储和服务
type Container struct {
	cfg      *config.Config
	db       *gorm.DB
	hasher   auth.PasswordHasher
	workflow *service.Workflow

	userRepo repository.UserRepository
	odRepo   repository.OdRequestRepository

	users    service.UserService
	sessions service.SessionService
	ods      service.OdRequestService
	export   service.ExportService
	stats    service.StatisticsService
	audit    service.AuditLogService
}

// NewContainer 连接数据库、执行迁移并装配全部服务
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. 初始化数据库(仅瞬时故障重试)
	db, err := database.ConnectWithRetry(ctx, cfg.Database, database.NewRetryPolicy(cfg.Retry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 2. 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return New(cfg, db), nil
}

// New 基于已有连接装配服务
func New(cfg *config.Config, db *gorm.DB) *Container {
	retry := database.NewRetryPolicy(cfg.Retry)

	c := &Container{
		cfg:      cfg,
		db:       db,
		hasher:   auth.NewPasswordHasher(cfg.Security.BcryptCost),
		workflow: service.NewWorkflow(cfg.Approval.Mode),
		userRepo: repository.NewUserRepository(db, retry),
		odRepo:   repository.NewOdRequestRepository(db, retry),
	}

	c.audit = service.NewAuditLogService(repository.NewAuditLogRepository(db, retry))
	c.users = service.NewUserService(c.userRepo, c.odRepo, c.hasher, c.audit)
	c.sessions = service.NewSessionService(repository.NewSessionRepository(db, retry), service.SessionOptions{
		TTL:         cfg.Session.TTL,
		MaxLifetime: cfg.Session.MaxLifetime,
	})
	c.ods = service.NewOdRequestService(c.odRepo, c.workflow, c.audit)
	c.export = service.NewExportService(c.odRepo, c.audit)
	c.stats = service.NewStatisticsService(c.userRepo, c.odRepo, c.workflow)
	return c
}

// AdminSeeder 获取初始管理员写入器
func (c *Container) AdminSeeder() *service.AdminSeeder {
	return service.NewAdminSeeder(c.userRepo, c.hasher, c.cfg.Admin)
}

// Router 构建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	return api.SetupRoutes(api.Dependencies{
		Config:   c.cfg,
		DB:       c.db,
		Users:    c.users,
		Sessions: c.sessions,
		Ods:      c.ods,
		Export:   c.export,
		Stats:    c.stats,
		Audit:    c.audit,
	})
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	database.Close(c.db)
	return nil
}
