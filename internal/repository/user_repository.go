package repository

import (
	"context"
	"time"

	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	FindStudents(ctx context.Context) ([]*model.User, error)
	FindPendingStudents(ctx context.Context) ([]*model.User, error)
	Approve(ctx context.Context, id uint, approverID uint, at time.Time) (bool, error)
	DeleteUnapprovedStudent(ctx context.Context, id uint) (bool, error)
	UpdatePassword(ctx context.Context, id uint, digest string) error
	CountStudents(ctx context.Context, approved *bool) (int64, error)
}

// userRepository 用户仓储实现
type userRepository struct {
	db    *gorm.DB
	retry database.RetryPolicy
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB, retry database.RetryPolicy) UserRepository {
	return &userRepository{db: db, retry: retry}
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Create(user).Error
	})
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRegistrationNumber 根据学号查找用户
func (r *userRepository) FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*model.User, error) {
	var user model.User
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("registration_number = ?", registrationNumber).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs 批量查找用户
func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) ([]*model.User, error) {
	var users []*model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		users = nil
		return r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	})
	return users, err
}

// FindAll 查找所有用户
func (r *userRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		users = nil
		return r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	})
	return users, err
}

// FindStudents 按姓名升序查找所有学生
func (r *userRepository) FindStudents(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		users = nil
		return r.db.WithContext(ctx).
			Where("role = ?", model.RoleStudent).
			Order("name ASC").
			Order("id ASC").
			Find(&users).Error
	})
	return users, err
}

// FindPendingStudents 查找待审核学生,最新注册在前
func (r *userRepository) FindPendingStudents(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		users = nil
		return r.db.WithContext(ctx).
			Where("role = ? AND is_approved = ?", model.RoleStudent, false).
			Order("created_at DESC").
			Order("id DESC").
			Find(&users).Error
	})
	return users, err
}

// Approve 审核通过学生,仅对未审核的学生生效
func (r *userRepository) Approve(ctx context.Context, id uint, approverID uint, at time.Time) (bool, error) {
	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ? AND role = ? AND is_approved = ?", id, model.RoleStudent, false).
			Updates(map[string]interface{}{
				"is_approved":    true,
				"approved_by_id": approverID,
				"approved_at":    at,
			})
		affected = result.RowsAffected
		return result.Error
	})
	return affected == 1, err
}

// DeleteUnapprovedStudent 删除未审核的学生
func (r *userRepository) DeleteUnapprovedStudent(ctx context.Context, id uint) (bool, error) {
	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).
			Where("id = ? AND role = ? AND is_approved = ?", id, model.RoleStudent, false).
			Delete(&model.User{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected == 1, err
}

// UpdatePassword 更新密码摘要
func (r *userRepository) UpdatePassword(ctx context.Context, id uint, digest string) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ?", id).
			Update("password", digest).Error
	})
}

// CountStudents 统计学生数量,approved 为 nil 时统计全部
func (r *userRepository) CountStudents(ctx context.Context, approved *bool) (int64, error) {
	var count int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		query := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.RoleStudent)
		if approved != nil {
			query = query.Where("is_approved = ?", *approved)
		}
		return query.Count(&count).Error
	})
	return count, err
}
