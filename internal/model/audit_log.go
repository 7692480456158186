package model

import (
	"errors"
	"time"
)

// AuditLogModel 审计日志数据模型
type AuditLogModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"userId"`
	Action       string    `gorm:"type:varchar(64);not null;index" json:"action"` // approve_student/deny_student/approve_od/reject_od/clear_od_data/export
	ResourceType string    `gorm:"type:varchar(32);not null" json:"resourceType"` // user/od_request/report
	ResourceID   string    `gorm:"type:varchar(64);not null;index" json:"resourceId"`
	RequestID    string    `gorm:"type:varchar(64);index" json:"requestId"`
	IP           string    `gorm:"type:varchar(45)" json:"ip"` // IPv4 或 IPv6
	UserAgent    string    `gorm:"type:text" json:"userAgent"`
	Details      string    `gorm:"type:text" json:"details"` // JSON 格式的操作详情
	CreatedAt    time.Time `gorm:"not null;index" json:"createdAt"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (alm *AuditLogModel) Validate() error {
	if alm.ID == "" {
		return errors.New("audit log ID is required")
	}
	if alm.UserID == 0 {
		return errors.New("user ID is required")
	}
	if alm.Action == "" {
		return errors.New("action is required")
	}
	if alm.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if alm.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
