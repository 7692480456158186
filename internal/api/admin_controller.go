package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// AdminController 管理端控制器
type AdminController struct {
	users  service.UserService
	ods    service.OdRequestService
	export service.ExportService
	stats  service.StatisticsService
	audit  service.AuditLogService
}

// NewAdminController 创建管理端控制器
func NewAdminController(
	users service.UserService,
	ods service.OdRequestService,
	export service.ExportService,
	stats service.StatisticsService,
	audit service.AuditLogService,
) *AdminController {
	return &AdminController{
		users:  users,
		ods:    ods,
		export: export,
		stats:  stats,
		audit:  audit,
	}
}

// ListStudents 学生列表,附带审核人和申请数
func (a *AdminController) ListStudents(c *gin.Context) {
	students, err := a.users.ListStudents(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, students)
}

// ListPendingStudents 待审核学生
func (a *AdminController) ListPendingStudents(c *gin.Context) {
	students, err := a.users.ListPendingStudents(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, students)
}

// ListUsers 全部账号
func (a *AdminController) ListUsers(c *gin.Context) {
	users, err := a.users.ListUsers(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, users)
}

// GetUser 账号详情
func (a *AdminController) GetUser(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	user, err := a.users.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, user)
}

// ApproveStudent 审核通过学生
func (a *AdminController) ApproveStudent(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	user, err := a.users.ApproveStudent(c.Request.Context(), id, CurrentIdentity(c).UserID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, user)
}

// DenyStudent 拒绝并删除未审核学生
func (a *AdminController) DenyStudent(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	if err := a.users.DenyStudent(c.Request.Context(), id, CurrentIdentity(c).UserID); err != nil {
		HandleError(c, err)
		return
	}
	NoContent(c)
}

// ListOdRequests 全部 OD 申请,支持 ?status= 过滤
func (a *AdminController) ListOdRequests(c *gin.Context) {
	var status *model.OdStatus
	if raw, ok := c.GetQuery("status"); ok && raw != "" {
		s := model.OdStatus(raw)
		if !s.Valid() {
			BadRequest(c, "Invalid status filter")
			return
		}
		status = &s
	}

	reqs, err := a.ods.ListAll(c.Request.Context(), status)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, reqs)
}

// ApproveOd 审批通过 OD 申请
func (a *AdminController) ApproveOd(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	req, err := a.ods.Approve(c.Request.Context(), CurrentIdentity(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, req)
}

// RejectOd 驳回 OD 申请
func (a *AdminController) RejectOd(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	req, err := a.ods.Reject(c.Request.Context(), CurrentIdentity(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, req)
}

// ClearOdData 清空全部 OD 申请
func (a *AdminController) ClearOdData(c *gin.Context) {
	deleted, err := a.ods.ClearAll(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ClearDataResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully cleared %d OD requests", deleted),
		Deleted: deleted,
	})
}

// ExportReport 导出 xlsx 报表
func (a *AdminController) ExportReport(c *gin.Context) {
	data, err := a.export.Export(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", service.ExportFileName))
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, service.ExportContentType, data)
}

// Stats 管理端统计
func (a *AdminController) Stats(c *gin.Context) {
	stats, err := a.stats.GetAdminStatistics(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, stats)
}

// ListAuditLogs 审计日志,支持 action / limit / offset
func (a *AdminController) ListAuditLogs(c *gin.Context) {
	filter := &repository.AuditLogFilter{Action: c.Query("action")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			BadRequest(c, "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			BadRequest(c, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	logs, total, err := a.audit.List(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}
	if logs == nil {
		logs = []*model.AuditLogModel{}
	}
	Success(c, AuditLogListResponse{
		Items:  logs,
		Total:  total,
		Limit:  effectiveLimit(filter.Limit),
		Offset: filter.Offset,
	})
}

// effectiveLimit 与仓储层默认分页保持一致
func effectiveLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
