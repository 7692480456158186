package repository

import (
	"context"

	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository 审计日志仓储接口
type AuditLogRepository interface {
	Save(ctx context.Context, log *model.AuditLogModel) error
	FindByUserID(ctx context.Context, userID uint) ([]*model.AuditLogModel, error)
	FindByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error)
	FindRecent(ctx context.Context, filter *AuditLogFilter) ([]*model.AuditLogModel, int64, error)
}

// AuditLogFilter 审计日志查询过滤器
type AuditLogFilter struct {
	Action string
	Limit  int
	Offset int
}

// auditLogRepository 审计日志仓储实现
type auditLogRepository struct {
	db    *gorm.DB
	retry database.RetryPolicy
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB, retry database.RetryPolicy) AuditLogRepository {
	return &auditLogRepository{db: db, retry: retry}
}

// Save 保存审计日志
func (r *auditLogRepository) Save(ctx context.Context, log *model.AuditLogModel) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// FindByUserID 根据操作人查找审计日志
func (r *auditLogRepository) FindByUserID(ctx context.Context, userID uint) ([]*model.AuditLogModel, error) {
	var logs []*model.AuditLogModel
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		logs = nil
		return r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&logs).Error
	})
	return logs, err
}

// FindByResource 根据资源查找审计日志
func (r *auditLogRepository) FindByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error) {
	var logs []*model.AuditLogModel
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		logs = nil
		return r.db.WithContext(ctx).
			Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
			Order("created_at DESC").
			Find(&logs).Error
	})
	return logs, err
}

// FindRecent 分页查询最近的审计日志,返回当前页和总数
func (r *auditLogRepository) FindRecent(ctx context.Context, filter *AuditLogFilter) ([]*model.AuditLogModel, int64, error) {
	limit, offset := 50, 0
	action := ""
	if filter != nil {
		if filter.Limit > 0 && filter.Limit <= 200 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
		action = filter.Action
	}

	var (
		logs  []*model.AuditLogModel
		total int64
	)
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		logs = nil
		query := r.db.WithContext(ctx).Model(&model.AuditLogModel{})
		if action != "" {
			query = query.Where("action = ?", action)
		}
		query = query.Session(&gorm.Session{})
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error
	})
	return logs, total, err
}
