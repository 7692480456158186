package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
)

func sqliteConfig(t *testing.T) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "uniod.db"),
	}
}

// TestBuildDSN 测试 DSN 构建
func TestBuildDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:           "db",
		Port:           5432,
		User:           "uniod",
		Password:       "pw",
		DBName:         "uniod",
		SSLMode:        "require",
		ConnectTimeout: 5,
	}
	dsn := database.BuildDSN(cfg)
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "connect_timeout=5")

	cfg.URL = "postgres://u:p@host/db"
	assert.Equal(t, "postgres://u:p@host/db", database.BuildDSN(cfg))
}

// TestDialector_Unsupported 测试未知驱动
func TestDialector_Unsupported(t *testing.T) {
	_, err := database.Dialector(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

// TestConnectAndMigrate 测试连接与迁移
func TestConnectAndMigrate(t *testing.T) {
	db, err := database.ConnectWithRetry(context.Background(), sqliteConfig(t), database.RetryPolicy{MaxRetries: 1, Delay: time.Millisecond})
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	// 重复迁移应当幂等
	require.NoError(t, database.Migrate(db))

	for _, table := range []interface{}{&model.User{}, &model.OdRequest{}, &model.LoginSession{}, &model.AuditLogModel{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&model.OdRequest{}, "idx_od_requests_user_date"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

// TestMigrate_Constraints 测试数据库约束
func TestMigrate_Constraints(t *testing.T) {
	db, err := database.Connect(sqliteConfig(t))
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, database.Migrate(db))

	user := &model.User{RegistrationNumber: "21BCE0001", Name: "Asha", Mobile: "9999999999", Password: "x", Role: model.RoleStudent}
	require.NoError(t, db.Create(user).Error)

	dup := &model.User{RegistrationNumber: "21BCE0001", Name: "Other", Mobile: "9999999998", Password: "x", Role: model.RoleStudent}
	err = db.Create(dup).Error
	assert.True(t, database.IsUniqueViolation(err))

	badRole := &model.User{RegistrationNumber: "21BCE0002", Name: "Bad", Mobile: "1", Password: "x", Role: "teacher"}
	assert.Error(t, db.Create(badRole).Error)

	orphan := &model.OdRequest{UserID: 9999, Date: time.Now().UTC(), Session: model.SessionFN, Status: model.OdStatusDraft}
	assert.Error(t, db.Omit("User").Create(orphan).Error)
}

// TestCheckHealth 测试健康检查
func TestCheckHealth(t *testing.T) {
	assert.False(t, database.CheckHealth(nil))

	db, err := database.Connect(sqliteConfig(t))
	require.NoError(t, err)
	assert.True(t, database.CheckHealth(db))

	database.Close(db)
	assert.False(t, database.CheckHealth(db))
}
