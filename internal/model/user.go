package model

import (
	"errors"
	"time"
)

// Role 用户角色
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid 判断角色是否合法
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User 用户数据模型
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	RegistrationNumber string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"registrationNumber"`
	Name               string     `gorm:"type:varchar(255);not null" json:"name"`
	Mobile             string     `gorm:"type:varchar(32);not null" json:"mobile"`
	Password           string     `gorm:"type:varchar(255);not null" json:"-"` // 密码摘要,永不序列化
	Role               Role       `gorm:"type:varchar(16);not null;default:'student';index;check:chk_users_role,role IN ('student','admin')" json:"role"`
	IsApproved         bool       `gorm:"not null;default:false;index" json:"isApproved"`
	ApprovedByID       *uint      `json:"approvedById"`
	ApprovedAt         *time.Time `json:"approvedAt"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"createdAt"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAuthenticate 学生账号必须审核通过后才能登录
func (u *User) CanAuthenticate() bool {
	if u.Role == RoleAdmin {
		return true
	}
	return u.IsApproved
}

// Validate 验证用户模型
func (u *User) Validate() error {
	if u.RegistrationNumber == "" {
		return errors.New("registration number is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Password == "" {
		return errors.New("password digest is required")
	}
	if !u.Role.Valid() {
		return errors.New("invalid role")
	}
	if u.Role == RoleAdmin && !u.IsApproved {
		return errors.New("admin accounts must be approved")
	}
	return nil
}
