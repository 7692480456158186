package model

import (
	"errors"
	"time"
)

// Session OD 时段: 上午 / 下午 / 全天
type Session string

const (
	SessionFN   Session = "FN"
	SessionAN   Session = "AN"
	SessionBoth Session = "BOTH"
)

// Valid 判断时段是否合法
func (s Session) Valid() bool {
	switch s {
	case SessionFN, SessionAN, SessionBoth:
		return true
	}
	return false
}

// OdStatus OD 申请状态
type OdStatus string

const (
	OdStatusDraft    OdStatus = "draft"
	OdStatusPending  OdStatus = "pending"
	OdStatusApproved OdStatus = "approved"
	OdStatusRejected OdStatus = "rejected"
)

// Valid 判断状态是否合法
func (s OdStatus) Valid() bool {
	switch s {
	case OdStatusDraft, OdStatusPending, OdStatusApproved, OdStatusRejected:
		return true
	}
	return false
}

// Terminal approved 和 rejected 为终态
func (s OdStatus) Terminal() bool {
	return s == OdStatusApproved || s == OdStatusRejected
}

// OdRequest OD 申请数据模型
type OdRequest struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index" json:"userId"`
	Date                  time.Time  `gorm:"not null;index" json:"date"` // 日历日期,UTC 零点
	Session               Session    `gorm:"type:varchar(8);not null;check:chk_od_requests_session,session IN ('FN','AN','BOTH')" json:"session"`
	Reason                string     `gorm:"type:varchar(200)" json:"reason"`
	Status                OdStatus   `gorm:"type:varchar(16);not null;default:'draft';index;check:chk_od_requests_status,status IN ('draft','pending','approved','rejected')" json:"status"`
	IsConfirmedSubmission bool       `gorm:"not null;default:false" json:"isConfirmedSubmission"`
	ApprovedByID          *uint      `json:"approvedById"`
	ApprovedAt            *time.Time `json:"approvedAt"`
	CreatedAt             time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt             time.Time  `gorm:"not null" json:"updatedAt"`

	// 仅用于迁移时生成外键约束
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName 指定表名
func (OdRequest) TableName() string {
	return "od_requests"
}

// Validate 验证 OD 申请模型
func (r *OdRequest) Validate() error {
	if r.UserID == 0 {
		return errors.New("user ID is required")
	}
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	if !r.Session.Valid() {
		return errors.New("invalid session")
	}
	if !r.Status.Valid() {
		return errors.New("invalid status")
	}
	return nil
}

// UserSummary 申请人轻量信息
type UserSummary struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber"`
}

// OdRequestWithUser 带申请人信息的 OD 申请
type OdRequestWithUser struct {
	OdRequest
	User *UserSummary `json:"user"`
}
