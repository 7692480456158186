package api

import (
	"github.com/surya-d-naidu/UniOD/internal/model"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	RegistrationNumber string `json:"registrationNumber" binding:"required,regno"`
	Name               string `json:"name" binding:"required,max=255"`
	Mobile             string `json:"mobile" binding:"required,max=32"`
	Password           string `json:"password" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	RegistrationNumber string `json:"registrationNumber" binding:"required"`
	Password           string `json:"password" binding:"required"`
}

// UserResponse 当前身份 / 注册结果
type UserResponse struct {
	ID                 uint       `json:"id"`
	RegistrationNumber string     `json:"registrationNumber"`
	Name               string     `json:"name"`
	Role               model.Role `json:"role"`
	IsApproved         bool       `json:"isApproved"`
}

func newUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:                 user.ID,
		RegistrationNumber: user.RegistrationNumber,
		Name:               user.Name,
		Role:               user.Role,
		IsApproved:         user.IsApproved,
	}
}

// CreateOdRequest 新建 OD 申请
// date 接受 YYYY-MM-DD 或 ISO 时间戳
type CreateOdRequest struct {
	Date    string        `json:"date" binding:"required"`
	Session model.Session `json:"session" binding:"required,odsession"`
	Reason  *string       `json:"reason"`
}

// UpdateOdRequest 修改 OD 申请,未出现的字段保持不变
type UpdateOdRequest struct {
	Date    *string        `json:"date"`
	Session *model.Session `json:"session" binding:"omitempty,odsession"`
	Reason  *string        `json:"reason"`
}

// ConfirmSubmissionResponse 确认提交结果
type ConfirmSubmissionResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// ClearDataResponse 清空 OD 数据结果
type ClearDataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

// AuditLogListResponse 审计日志分页结果
type AuditLogListResponse struct {
	Items  []*model.AuditLogModel `json:"items"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}
