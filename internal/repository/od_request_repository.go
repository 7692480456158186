package repository

import (
	"context"
	"time"

	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OdRequestRepository OD 申请仓储接口
type OdRequestRepository interface {
	Create(ctx context.Context, req *model.OdRequest) error
	FindByID(ctx context.Context, id uint) (*model.OdRequest, error)
	FindByUser(ctx context.Context, userID uint) ([]*model.OdRequest, error)
	FindAll(ctx context.Context, filter *OdRequestFilter) ([]*model.OdRequest, error)
	FindAllWithUsers(ctx context.Context, filter *OdRequestFilter) ([]*model.OdRequestWithUser, error)
	Update(ctx context.Context, id uint, changes OdRequestChanges, allowed ...model.OdStatus) (bool, error)
	Delete(ctx context.Context, id uint, allowed ...model.OdStatus) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	ConfirmDrafts(ctx context.Context, userID uint, to model.OdStatus, at time.Time) (int64, error)
	Transition(ctx context.Context, id uint, from, to model.OdStatus, approverID *uint, at time.Time) (bool, error)
	CountByStatus(ctx context.Context) (map[model.OdStatus]int64, error)
	CountByUser(ctx context.Context, userIDs []uint) (map[uint]int64, error)
}

// OdRequestFilter OD 申请查询过滤器
type OdRequestFilter struct {
	Status *model.OdStatus
}

// OdRequestChanges 可由申请人修改的字段,nil 表示不修改
type OdRequestChanges struct {
	Date    *time.Time
	Session *model.Session
	Reason  *string
}

// Empty 是否没有任何修改
func (c OdRequestChanges) Empty() bool {
	return c.Date == nil && c.Session == nil && c.Reason == nil
}

// odRequestRepository OD 申请仓储实现
type odRequestRepository struct {
	db    *gorm.DB
	retry database.RetryPolicy
}

// NewOdRequestRepository 创建 OD 申请仓储
func NewOdRequestRepository(db *gorm.DB, retry database.RetryPolicy) OdRequestRepository {
	return &odRequestRepository{db: db, retry: retry}
}

// Create 保存 OD 申请
func (r *odRequestRepository) Create(ctx context.Context, req *model.OdRequest) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
	})
}

// FindByID 根据 ID 查找 OD 申请
func (r *odRequestRepository) FindByID(ctx context.Context, id uint) (*model.OdRequest, error) {
	var req model.OdRequest
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByUser 查找用户的 OD 申请,日期最新在前
func (r *odRequestRepository) FindByUser(ctx context.Context, userID uint) ([]*model.OdRequest, error) {
	var reqs []*model.OdRequest
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		reqs = nil
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("date DESC").
			Order("id DESC").
			Find(&reqs).Error
	})
	return reqs, err
}

// FindAll 查找所有 OD 申请,日期最新在前
func (r *odRequestRepository) FindAll(ctx context.Context, filter *OdRequestFilter) ([]*model.OdRequest, error) {
	var reqs []*model.OdRequest
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		reqs = nil
		query := r.db.WithContext(ctx).Model(&model.OdRequest{})
		if filter != nil && filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		return query.Order("date DESC").Order("id DESC").Find(&reqs).Error
	})
	return reqs, err
}

// FindAllWithUsers 查找所有 OD 申请并附带申请人信息
// 申请人通过一次 IN 查询批量获取,在内存中关联
func (r *odRequestRepository) FindAllWithUsers(ctx context.Context, filter *OdRequestFilter) ([]*model.OdRequestWithUser, error) {
	reqs, err := r.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(reqs))
	userIDs := make([]uint, 0, len(reqs))
	for _, req := range reqs {
		if _, ok := seen[req.UserID]; ok {
			continue
		}
		seen[req.UserID] = struct{}{}
		userIDs = append(userIDs, req.UserID)
	}

	users := make(map[uint]*model.UserSummary, len(userIDs))
	if len(userIDs) > 0 {
		var summaries []*model.UserSummary
		err := r.retry.Do(ctx, func(ctx context.Context) error {
			summaries = nil
			return r.db.WithContext(ctx).
				Model(&model.User{}).
				Select("id", "name", "registration_number").
				Where("id IN ?", userIDs).
				Scan(&summaries).Error
		})
		if err != nil {
			return nil, err
		}
		for _, summary := range summaries {
			users[summary.ID] = summary
		}
	}

	result := make([]*model.OdRequestWithUser, 0, len(reqs))
	for _, req := range reqs {
		result = append(result, &model.OdRequestWithUser{
			OdRequest: *req,
			User:      users[req.UserID],
		})
	}
	return result, nil
}

// Update 修改 OD 申请字段,allowed 非空时仅在状态匹配时生效
func (r *odRequestRepository) Update(ctx context.Context, id uint, changes OdRequestChanges, allowed ...model.OdStatus) (bool, error) {
	fields := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if changes.Date != nil {
		fields["date"] = *changes.Date
	}
	if changes.Session != nil {
		fields["session"] = *changes.Session
	}
	if changes.Reason != nil {
		fields["reason"] = *changes.Reason
	}

	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		query := r.db.WithContext(ctx).Model(&model.OdRequest{}).Where("id = ?", id)
		if len(allowed) > 0 {
			query = query.Where("status IN ?", allowed)
		}
		result := query.Updates(fields)
		affected = result.RowsAffected
		return result.Error
	})
	return affected == 1, err
}

// Delete 删除 OD 申请,allowed 非空时仅在状态匹配时生效
func (r *odRequestRepository) Delete(ctx context.Context, id uint, allowed ...model.OdStatus) (bool, error) {
	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		query := r.db.WithContext(ctx).Where("id = ?", id)
		if len(allowed) > 0 {
			query = query.Where("status IN ?", allowed)
		}
		result := query.Delete(&model.OdRequest{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected == 1, err
}

// DeleteAll 删除全部 OD 申请,返回删除数量
func (r *odRequestRepository) DeleteAll(ctx context.Context) (int64, error) {
	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&model.OdRequest{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// ConfirmDrafts 将用户全部草稿确认提交为目标状态
func (r *odRequestRepository) ConfirmDrafts(ctx context.Context, userID uint, to model.OdStatus, at time.Time) (int64, error) {
	fields := map[string]interface{}{
		"status":                  to,
		"is_confirmed_submission": true,
		"updated_at":              at,
	}
	if to == model.OdStatusApproved {
		fields["approved_at"] = at
	}

	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).
			Model(&model.OdRequest{}).
			Where("user_id = ? AND status = ?", userID, model.OdStatusDraft).
			Updates(fields)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// Transition 条件更新状态,仅当当前状态为 from 时生效
func (r *odRequestRepository) Transition(ctx context.Context, id uint, from, to model.OdStatus, approverID *uint, at time.Time) (bool, error) {
	fields := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	if to.Terminal() {
		fields["approved_by_id"] = approverID
		fields["approved_at"] = at
	}
	if from == model.OdStatusDraft {
		fields["is_confirmed_submission"] = true
	}

	var affected int64
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).
			Model(&model.OdRequest{}).
			Where("id = ? AND status = ?", id, from).
			Updates(fields)
		affected = result.RowsAffected
		return result.Error
	})
	return affected == 1, err
}

// CountByStatus 按状态统计 OD 申请
func (r *odRequestRepository) CountByStatus(ctx context.Context) (map[model.OdStatus]int64, error) {
	var rows []struct {
		Status model.OdStatus
		Count  int64
	}
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		rows = nil
		return r.db.WithContext(ctx).
			Model(&model.OdRequest{}).
			Select("status, COUNT(*) as count").
			Group("status").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	counts := map[model.OdStatus]int64{
		model.OdStatusDraft:    0,
		model.OdStatusPending:  0,
		model.OdStatusApproved: 0,
		model.OdStatusRejected: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountByUser 统计指定用户的 OD 申请数量
func (r *odRequestRepository) CountByUser(ctx context.Context, userIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uint
		Count  int64
	}
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		rows = nil
		return r.db.WithContext(ctx).
			Model(&model.OdRequest{}).
			Select("user_id, COUNT(*) as count").
			Where("user_id IN ?", userIDs).
			Group("user_id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}
