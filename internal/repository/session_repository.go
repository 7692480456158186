package repository

import (
	"context"
	"time"

	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"gorm.io/gorm"
)

// SessionRepository 登录会话仓储接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.LoginSession) error
	FindByID(ctx context.Context, id string) (*model.LoginSession, error)
	Touch(ctx context.Context, id string, expiresAt time.Time, seenAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// sessionRepository 登录会话仓储实现
type sessionRepository struct {
	db    *gorm.DB
	retry database.RetryPolicy
}

// NewSessionRepository 创建登录会话仓储
func NewSessionRepository(db *gorm.DB, retry database.RetryPolicy) SessionRepository {
	return &sessionRepository{db: db, retry: retry}
}

// Create 保存会话
func (r *sessionRepository) Create(ctx context.Context, session *model.LoginSession) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Create(session).Error
	})
}

// FindByID 根据 ID 查找会话
func (r *sessionRepository) FindByID(ctx context.Context, id string) (*model.LoginSession, error) {
	var session model.LoginSession
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch 续期会话
func (r *sessionRepository) Touch(ctx context.Context, id string, expiresAt time.Time, seenAt time.Time) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Model(&model.LoginSession{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"expires_at":   expiresAt,
				"last_seen_at": seenAt,
			}).Error
	})
}

// Delete 删除会话
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.LoginSession{}).Error
	})
}

// DeleteExpired 清理已过期会话
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).
			Where("expires_at <= ? OR absolute_expires_at <= ?", now, now).
			Delete(&model.LoginSession{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}
