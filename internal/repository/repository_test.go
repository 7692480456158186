package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testRetry = database.RetryPolicy{MaxRetries: 0, Delay: time.Millisecond}

// setupTestDB 创建内存测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// 内存库每个连接独立,固定为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createStudent(t *testing.T, db *gorm.DB, regNo, name string, approved bool) *model.User {
	user := &model.User{
		RegistrationNumber: regNo,
		Name:               name,
		Mobile:             "9876543210",
		Password:           "digest",
		Role:               model.RoleStudent,
		IsApproved:         approved,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createOd(t *testing.T, db *gorm.DB, userID uint, date string, session model.Session, status model.OdStatus) *model.OdRequest {
	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	req := &model.OdRequest{
		UserID:  userID,
		Date:    day,
		Session: session,
		Reason:  "symposium",
		Status:  status,
	}
	require.NoError(t, db.Omit("User").Create(req).Error)
	return req
}
