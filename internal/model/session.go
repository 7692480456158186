package model

import (
	"errors"
	"time"
)

// LoginSession 服务端登录会话
// 命名避开 OD 时段类型 Session
type LoginSession struct {
	ID                string    `gorm:"primaryKey;type:varchar(64)"` // 不透明 token
	UserID            uint      `gorm:"not null;index"`
	Role              Role      `gorm:"type:varchar(16);not null"`
	ExpiresAt         time.Time `gorm:"not null;index"` // 滑动过期时间
	AbsoluteExpiresAt time.Time `gorm:"not null"`       // 最长生命周期
	CreatedAt         time.Time `gorm:"not null"`
	LastSeenAt        time.Time `gorm:"not null"`
}

// TableName 指定表名
func (LoginSession) TableName() string {
	return "sessions"
}

// Expired 判断会话在给定时间是否已过期
func (s *LoginSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt) || !now.Before(s.AbsoluteExpiresAt)
}

// Validate 验证会话模型
func (s *LoginSession) Validate() error {
	if s.ID == "" {
		return errors.New("session ID is required")
	}
	if s.UserID == 0 {
		return errors.New("user ID is required")
	}
	if !s.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}
