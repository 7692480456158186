package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"gorm.io/gorm"
)

// TestUserRepository_CreateAndFind 测试创建与查找用户
func TestUserRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db, testRetry)
	ctx := context.Background()

	user := &model.User{
		RegistrationNumber: "21BCE1001",
		Name:               "Asha",
		Mobile:             "9876543210",
		Password:           "digest",
		Role:               model.RoleStudent,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", found.Name)
	assert.False(t, found.IsApproved)

	byRegNo, err := repo.FindByRegistrationNumber(ctx, "21BCE1001")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byRegNo.ID)

	_, err = repo.FindByID(ctx, 9999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

// TestUserRepository_DuplicateRegistration 测试学号唯一
func TestUserRepository_DuplicateRegistration(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db, testRetry)
	ctx := context.Background()

	first := createStudent(t, db, "21BCE1001", "Asha", false)

	err := repo.Create(ctx, &model.User{
		RegistrationNumber: "21BCE1001",
		Name:               "Impostor",
		Mobile:             "1111111111",
		Password:           "digest",
		Role:               model.RoleStudent,
	})
	assert.True(t, database.IsUniqueViolation(err))

	kept, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", kept.Name)
}

// TestUserRepository_FindStudents 测试学生按姓名排序
func TestUserRepository_FindStudents(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db, testRetry)

	createStudent(t, db, "R3", "Charlie", true)
	createStudent(t, db, "R1", "Alice", false)
	createStudent(t, db, "R2", "Bob", true)
	require.NoError(t, db.Create(&model.User{
		RegistrationNumber: "ADMIN001", Name: "Aaron Admin", Mobile: "1", Password: "x",
		Role: model.RoleAdmin, IsApproved: true,
	}).Error)

	students, err := repo.FindStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "Alice", students[0].Name)
	assert.Equal(t, "Bob", students[1].Name)
	assert.Equal(t, "Charlie", students[2].Name)
}

// TestUserRepository_FindPendingStudents 测试待审核学生最新在前
func TestUserRepository_FindPendingStudents(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db, testRetry)

	older := createStudent(t, db, "R1", "Older", false)
	newer := createStudent(t, db, "R2", "Newer", false)
	createStudent(t, db, "R3", "Approved", true)
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)

	pending, err := repo.FindPendingStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, newer.ID, pending[0].ID)
	assert.Equal(t, older.ID, pending[1].ID)
}

// TestUserRepository_Approve 测试条件审核
func TestUserRepository_Approve(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db, testRetry)
	ctx := context.Background()

	student := createStudent(t, db, "R1", "Asha", false)
	now := time.Now().UTC()

	ok, err := repo.Approve(ctx, student.ID, 42, now)
	require.NoError(t, err)
	assert.True(t, ok)

	approved, err := repo.FindByID(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, uint(42), *approved.ApprovedByID)
	assert.NotNil(t, approved.ApprovedAt)

	// 已审核的学生不再生效
	ok, err = repo.Approve(ctx, student.ID, 43, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestUserRepository_DeleteUnapprovedStudent 测试只能删除未审核学生
func TestUserRepository_DeleteUnapprovedStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db, testRetry)
	ctx := context.Background()

	pending := createStudent(t, db, "R1", "Pending", false)
	approved := createStudent(t, db, "R2", "Approved", true)

	ok, err := repo.DeleteUnapprovedStudent(ctx, approved.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteUnapprovedStudent(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.FindByID(ctx, pending.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// TestUserRepository_CountStudents 测试学生统计
func TestUserRepository_CountStudents(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db, testRetry)
	ctx := context.Background()

	createStudent(t, db, "R1", "A", false)
	createStudent(t, db, "R2", "B", true)
	createStudent(t, db, "R3", "C", true)

	total, err := repo.CountStudents(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	yes := true
	approved, err := repo.CountStudents(ctx, &yes)
	require.NoError(t, err)
	assert.Equal(t, int64(2), approved)
}
