package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/surya-d-naidu/UniOD/internal/auth"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"github.com/surya-d-naidu/UniOD/internal/service"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv 服务测试环境
type testEnv struct {
	db       *gorm.DB
	hasher   auth.PasswordHasher
	userRepo repository.UserRepository
	odRepo   repository.OdRequestRepository
	audit    service.AuditLogService
	users    service.UserService
	ods      service.OdRequestService
	export   service.ExportService
	stats    service.StatisticsService
	sessions service.SessionService
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T, mode string) *testEnv {
	db := setupTestDB(t)
	retry := database.RetryPolicy{MaxRetries: 0, Delay: time.Millisecond}

	env := &testEnv{
		db:       db,
		hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
		userRepo: repository.NewUserRepository(db, retry),
		odRepo:   repository.NewOdRequestRepository(db, retry),
	}
	env.audit = service.NewAuditLogService(repository.NewAuditLogRepository(db, retry))
	workflow := service.NewWorkflow(mode)
	env.users = service.NewUserService(env.userRepo, env.odRepo, env.hasher, env.audit)
	env.ods = service.NewOdRequestService(env.odRepo, workflow, env.audit)
	env.export = service.NewExportService(env.odRepo, env.audit)
	env.stats = service.NewStatisticsService(env.userRepo, env.odRepo, workflow)
	env.sessions = service.NewSessionService(repository.NewSessionRepository(db, retry), service.SessionOptions{
		TTL:         time.Hour,
		MaxLifetime: 24 * time.Hour,
	})
	return env
}

// student 注册并审核一个学生
func (e *testEnv) student(t *testing.T, regNo, name string) *service.Identity {
	user, err := e.users.Register(context.Background(), service.RegisterInput{
		RegistrationNumber: regNo,
		Name:               name,
		Mobile:             "9876543210",
		Password:           "secret123",
	})
	require.NoError(t, err)
	_, err = e.userRepo.Approve(context.Background(), user.ID, e.adminID(t), time.Now().UTC())
	require.NoError(t, err)
	return &service.Identity{UserID: user.ID, Role: model.RoleStudent}
}

// admin 确保管理员存在
func (e *testEnv) admin(t *testing.T) *service.Identity {
	return &service.Identity{UserID: e.adminID(t), Role: model.RoleAdmin}
}

func (e *testEnv) adminID(t *testing.T) uint {
	seeder := service.NewAdminSeeder(e.userRepo, e.hasher, config.AdminConfig{
		RegistrationNumber: "ADMIN001",
		Name:               "System Administrator",
		Mobile:             "1234567890",
		Password:           "admin123",
	})
	_, err := seeder.Seed(context.Background())
	require.NoError(t, err)
	admin, err := e.userRepo.FindByRegistrationNumber(context.Background(), "ADMIN001")
	require.NoError(t, err)
	return admin.ID
}

func day(t *testing.T, value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}
