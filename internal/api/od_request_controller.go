package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// OdRequestController 学生端 OD 申请控制器
type OdRequestController struct {
	ods service.OdRequestService
	loc *time.Location
}

// NewOdRequestController 创建 OD 申请控制器
// loc 用于把带时间的 ISO 日期换算为日历日期
func NewOdRequestController(ods service.OdRequestService, loc *time.Location) *OdRequestController {
	if loc == nil {
		loc = time.UTC
	}
	return &OdRequestController{ods: ods, loc: loc}
}

// List 本人的 OD 申请
func (o *OdRequestController) List(c *gin.Context) {
	reqs, err := o.ods.ListOwn(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, reqs)
}

// Create 新建 OD 申请
func (o *OdRequestController) Create(c *gin.Context) {
	var req CreateOdRequest
	if !bindJSON(c, &req) {
		return
	}

	date, err := service.ParseOdDate(req.Date, o.loc)
	if err != nil {
		HandleError(c, err)
		return
	}
	input := service.CreateOdInput{Date: date, Session: req.Session}
	if req.Reason != nil {
		input.Reason = *req.Reason
	}

	created, err := o.ods.Create(c.Request.Context(), CurrentIdentity(c), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, created)
}

// Update 修改 OD 申请
func (o *OdRequestController) Update(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req UpdateOdRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.UpdateOdInput{Session: req.Session, Reason: req.Reason}
	if req.Date != nil {
		date, err := service.ParseOdDate(*req.Date, o.loc)
		if err != nil {
			HandleError(c, err)
			return
		}
		input.Date = &date
	}

	updated, err := o.ods.Update(c.Request.Context(), CurrentIdentity(c), id, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, updated)
}

// Delete 删除 OD 申请
func (o *OdRequestController) Delete(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	if err := o.ods.Delete(c.Request.Context(), CurrentIdentity(c), id); err != nil {
		HandleError(c, err)
		return
	}
	NoContent(c)
}

// ConfirmSubmission 确认提交全部草稿
func (o *OdRequestController) ConfirmSubmission(c *gin.Context) {
	count, err := o.ods.ConfirmSubmission(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	message := "Submission confirmed"
	if o.ods.Workflow().AutoApprove() {
		message = "Submission confirmed and approved"
	}
	Success(c, ConfirmSubmissionResponse{Message: message, Count: count})
}
