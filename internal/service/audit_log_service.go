package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
)

// 审计动作
const (
	AuditApproveStudent = "approve_student"
	AuditDenyStudent    = "deny_student"
	AuditApproveOd      = "approve_od"
	AuditRejectOd       = "reject_od"
	AuditClearOdData    = "clear_od_data"
	AuditExport         = "export"
)

// 审计资源类型
const (
	ResourceUser      = "user"
	ResourceOdRequest = "od_request"
	ResourceReport    = "report"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, userID uint, action string, resourceType string, resourceID string, details interface{}) error
	List(ctx context.Context, filter *repository.AuditLogFilter) ([]*model.AuditLogModel, int64, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID uint,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	info := RequestInfoFrom(ctx)

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    info.RequestID,
		IP:           info.IP,
		UserAgent:    info.UserAgent,
		Details:      string(detailsJSON),
		CreatedAt:    time.Now().UTC(),
	}
	if err := auditLog.Validate(); err != nil {
		return err
	}

	return s.auditRepo.Save(ctx, auditLog)
}

// List 分页查询审计日志
func (s *auditLogService) List(ctx context.Context, filter *repository.AuditLogFilter) ([]*model.AuditLogModel, int64, error) {
	logs, total, err := s.auditRepo.FindRecent(ctx, filter)
	if err != nil {
		return nil, 0, classify(err, "Audit log not found")
	}
	return logs, total, nil
}

// recordAudit 写审计日志,失败只记录告警,不影响业务结果
func recordAudit(ctx context.Context, audit AuditLogService, userID uint, action, resourceType, resourceID string, details interface{}) {
	if audit == nil {
		return
	}
	if err := audit.RecordAction(ctx, userID, action, resourceType, resourceID, details); err != nil {
		logging.GetLogger().WithFields(logrus.Fields{
			"action":      action,
			"resource_id": resourceID,
			"error":       err.Error(),
		}).Warn("failed to record audit log")
	}
}
