package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"github.com/surya-d-naidu/UniOD/internal/metrics"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
)

// 理由长度限制(按字符计)
const (
	ReasonMinLength = 5
	ReasonMaxLength = 200
)

// CreateOdInput 新建 OD 申请参数
type CreateOdInput struct {
	Date    time.Time
	Session model.Session
	Reason  string
}

// UpdateOdInput 修改 OD 申请参数,nil 表示不修改
type UpdateOdInput struct {
	Date    *time.Time
	Session *model.Session
	Reason  *string
}

// OdRequestService OD 申请服务
type OdRequestService interface {
	Create(ctx context.Context, actor *Identity, input CreateOdInput) (*model.OdRequest, error)
	Get(ctx context.Context, actor *Identity, id uint) (*model.OdRequest, error)
	ListOwn(ctx context.Context, actor *Identity) ([]*model.OdRequest, error)
	ListAll(ctx context.Context, status *model.OdStatus) ([]*model.OdRequestWithUser, error)
	Update(ctx context.Context, actor *Identity, id uint, input UpdateOdInput) (*model.OdRequest, error)
	Delete(ctx context.Context, actor *Identity, id uint) error
	ConfirmSubmission(ctx context.Context, actor *Identity) (int64, error)
	Approve(ctx context.Context, actor *Identity, id uint) (*model.OdRequest, error)
	Reject(ctx context.Context, actor *Identity, id uint) (*model.OdRequest, error)
	ClearAll(ctx context.Context, actor *Identity) (int64, error)
	Workflow() *Workflow
}

// odRequestService OD 申请服务实现
type odRequestService struct {
	repo     repository.OdRequestRepository
	workflow *Workflow
	audit    AuditLogService
	now      func() time.Time
}

// NewOdRequestService 创建 OD 申请服务
func NewOdRequestService(repo repository.OdRequestRepository, workflow *Workflow, audit AuditLogService) OdRequestService {
	return &odRequestService{
		repo:     repo,
		workflow: workflow,
		audit:    audit,
		now:      time.Now,
	}
}

// Workflow 当前状态机
func (s *odRequestService) Workflow() *Workflow {
	return s.workflow
}

// Create 创建 OD 申请,初始状态由审批模式决定
func (s *odRequestService) Create(ctx context.Context, actor *Identity, input CreateOdInput) (*model.OdRequest, error) {
	if actor == nil {
		return nil, Unauthorized("Unauthorized")
	}
	if !input.Session.Valid() {
		return nil, Validation("Session must be one of FN, AN, BOTH")
	}
	if input.Date.IsZero() {
		return nil, Validation("Date is required")
	}
	reason, err := NormalizeReason(input.Reason)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := s.workflow.InitialStatus()
	req := &model.OdRequest{
		UserID:    actor.UserID,
		Date:      CalendarDate(input.Date),
		Session:   input.Session,
		Reason:    reason,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == model.OdStatusApproved {
		// 自动审批: 无审核人,直接确认
		req.IsConfirmedSubmission = true
		req.ApprovedAt = &now
	}
	if err := req.Validate(); err != nil {
		return nil, Validation(err.Error())
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, classify(err, "")
	}
	metrics.RecordOdRequestCreated(string(req.Status))
	return req, nil
}

// Get 获取 OD 申请,非管理员只能查看自己的申请
func (s *odRequestService) Get(ctx context.Context, actor *Identity, id uint) (*model.OdRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "OD request not found")
	}
	if !actor.IsAdmin() && req.UserID != actor.UserID {
		return nil, Forbidden("Forbidden")
	}
	return req, nil
}

// ListOwn 获取本人申请,日期最新在前
func (s *odRequestService) ListOwn(ctx context.Context, actor *Identity) ([]*model.OdRequest, error) {
	reqs, err := s.repo.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, classify(err, "")
	}
	return reqs, nil
}

// ListAll 获取全部申请并附带申请人信息
func (s *odRequestService) ListAll(ctx context.Context, status *model.OdStatus) ([]*model.OdRequestWithUser, error) {
	if status != nil && !status.Valid() {
		return nil, Validation("Invalid status filter")
	}
	reqs, err := s.repo.FindAllWithUsers(ctx, &repository.OdRequestFilter{Status: status})
	if err != nil {
		return nil, classify(err, "")
	}
	return reqs, nil
}

// Update 修改日期、时段或理由,状态不可通过此接口修改
func (s *odRequestService) Update(ctx context.Context, actor *Identity, id uint, input UpdateOdInput) (*model.OdRequest, error) {
	changes := repository.OdRequestChanges{}
	if input.Date != nil {
		if input.Date.IsZero() {
			return nil, Validation("Date is required")
		}
		date := CalendarDate(*input.Date)
		changes.Date = &date
	}
	if input.Session != nil {
		if !input.Session.Valid() {
			return nil, Validation("Session must be one of FN, AN, BOTH")
		}
		changes.Session = input.Session
	}
	if input.Reason != nil {
		reason, err := NormalizeReason(*input.Reason)
		if err != nil {
			return nil, err
		}
		changes.Reason = &reason
	}
	if changes.Empty() {
		return nil, Validation("No fields to update")
	}

	allowed, err := s.authorizeMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, id, changes, allowed...)
	if err != nil {
		return nil, classify(err, "OD request not found")
	}
	if !ok {
		return nil, s.explainMiss(ctx, id, "OD request can no longer be modified")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "OD request not found")
	}
	return updated, nil
}

// Delete 删除 OD 申请
func (s *odRequestService) Delete(ctx context.Context, actor *Identity, id uint) error {
	allowed, err := s.authorizeMutation(ctx, actor, id)
	if err != nil {
		return err
	}

	ok, err := s.repo.Delete(ctx, id, allowed...)
	if err != nil {
		return classify(err, "OD request not found")
	}
	if !ok {
		return s.explainMiss(ctx, id, "OD request can no longer be deleted")
	}
	return nil
}

// authorizeMutation 校验归属和可修改状态,返回条件更新使用的状态集合
func (s *odRequestService) authorizeMutation(ctx context.Context, actor *Identity, id uint) ([]model.OdStatus, error) {
	if actor == nil {
		return nil, Unauthorized("Unauthorized")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "OD request not found")
	}
	if actor.IsAdmin() {
		return nil, nil
	}
	if req.UserID != actor.UserID {
		return nil, Forbidden("Forbidden")
	}
	if !s.workflow.OwnerCanModify(req.Status) {
		return nil, Conflict(fmt.Sprintf("OD request is %s and can no longer be modified", req.Status))
	}
	return s.workflow.EditableStatuses(), nil
}

// explainMiss 条件更新未命中时区分不存在和状态冲突
func (s *odRequestService) explainMiss(ctx context.Context, id uint, conflictMessage string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return classify(err, "OD request not found")
	}
	return Conflict(conflictMessage)
}

// ConfirmSubmission 确认提交本人全部草稿
func (s *odRequestService) ConfirmSubmission(ctx context.Context, actor *Identity) (int64, error) {
	to, ok := s.workflow.Next(model.OdStatusDraft, ActionSubmit)
	if !ok {
		return 0, Conflict("Submission is not available")
	}

	count, err := s.repo.ConfirmDrafts(ctx, actor.UserID, to, s.now().UTC())
	if err != nil {
		return 0, classify(err, "")
	}
	metrics.RecordTransition(string(ActionSubmit), int(count))

	logging.GetLogger().WithFields(logrus.Fields{
		"user_id": actor.UserID,
		"count":   count,
		"status":  to,
	}).Info("od submission confirmed")
	return count, nil
}

// Approve 管理员审批通过
func (s *odRequestService) Approve(ctx context.Context, actor *Identity, id uint) (*model.OdRequest, error) {
	return s.decide(ctx, actor, id, ActionApprove, AuditApproveOd)
}

// Reject 管理员驳回
func (s *odRequestService) Reject(ctx context.Context, actor *Identity, id uint) (*model.OdRequest, error) {
	return s.decide(ctx, actor, id, ActionReject, AuditRejectOd)
}

func (s *odRequestService) decide(ctx context.Context, actor *Identity, id uint, action Action, auditAction string) (*model.OdRequest, error) {
	if !actor.IsAdmin() {
		return nil, Forbidden("Forbidden")
	}

	to, ok := s.workflow.Next(model.OdStatusPending, action)
	if !ok {
		return nil, Conflict("Transition not allowed")
	}

	approverID := actor.UserID
	ok, err := s.repo.Transition(ctx, id, model.OdStatusPending, to, &approverID, s.now().UTC())
	if err != nil {
		return nil, classify(err, "OD request not found")
	}

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "OD request not found")
	}
	if !ok {
		return nil, Conflict(fmt.Sprintf("OD request is %s, only pending requests can be decided", req.Status))
	}

	metrics.RecordTransition(string(action), 1)
	recordAudit(ctx, s.audit, actor.UserID, auditAction, ResourceOdRequest, strconv.FormatUint(uint64(id), 10), map[string]interface{}{
		"ownerId": req.UserID,
		"status":  req.Status,
	})
	return req, nil
}

// ClearAll 删除全部 OD 申请
func (s *odRequestService) ClearAll(ctx context.Context, actor *Identity) (int64, error) {
	if !actor.IsAdmin() {
		return 0, Forbidden("Forbidden")
	}

	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, classify(err, "")
	}

	logging.GetLogger().WithFields(logrus.Fields{
		"admin_id": actor.UserID,
		"deleted":  deleted,
	}).Warn("all od requests cleared")
	recordAudit(ctx, s.audit, actor.UserID, AuditClearOdData, ResourceOdRequest, "*", map[string]interface{}{
		"deleted": deleted,
	})
	return deleted, nil
}

// NormalizeReason 去除首尾空白并校验长度,空串视为未填写
func NormalizeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", nil
	}
	length := utf8.RuneCountInString(reason)
	if length < ReasonMinLength || length > ReasonMaxLength {
		return "", Validation(fmt.Sprintf("Reason must be between %d and %d characters", ReasonMinLength, ReasonMaxLength))
	}
	return reason, nil
}

// CalendarDate 截断为 UTC 零点的日历日期
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseOdDate 解析日期,支持 YYYY-MM-DD 和 ISO 时间戳
// 带时间的输入先换算到 loc 再取日期
func ParseOdDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, Validation("Date is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return CalendarDate(t), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return CalendarDate(t.In(loc)), nil
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return CalendarDate(t), nil
		}
	}
	return time.Time{}, Validation("Invalid date format")
}
