package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/auth"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
)

// Identity 已认证的身份
type Identity struct {
	UserID uint
	Role   model.Role
}

// IsAdmin 是否管理员
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.RoleAdmin
}

// SessionOptions 会话参数
type SessionOptions struct {
	TTL         time.Duration
	MaxLifetime time.Duration
	Now         func() time.Time
}

// SessionService 会话管理
type SessionService interface {
	Create(ctx context.Context, user *model.User) (string, *model.LoginSession, error)
	Authenticate(ctx context.Context, token string) (*Identity, *model.LoginSession, error)
	Destroy(ctx context.Context, token string) error
}

// sessionService 会话管理实现
// 数据库只保存 token 的 SHA-256,不保存 token 本身
type sessionService struct {
	repo repository.SessionRepository
	opts SessionOptions
}

// NewSessionService 创建会话管理服务
func NewSessionService(repo repository.SessionRepository, opts SessionOptions) SessionService {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxLifetime <= 0 {
		opts.MaxLifetime = 7 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &sessionService{repo: repo, opts: opts}
}

// Create 登录成功后创建会话,返回交给客户端的 token
func (s *sessionService) Create(ctx context.Context, user *model.User) (string, *model.LoginSession, error) {
	now := s.opts.Now().UTC()

	// 顺带清理过期会话
	if purged, err := s.repo.DeleteExpired(ctx, now); err != nil {
		logging.GetLogger().WithError(err).Warn("failed to purge expired sessions")
	} else if purged > 0 {
		logging.GetLogger().WithField("count", purged).Debug("purged expired sessions")
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", nil, Internal("Failed to establish session", err)
	}

	absolute := now.Add(s.opts.MaxLifetime)
	session := &model.LoginSession{
		ID:                hashToken(token),
		UserID:            user.ID,
		Role:              user.Role,
		ExpiresAt:         earliest(now.Add(s.opts.TTL), absolute),
		AbsoluteExpiresAt: absolute,
		CreatedAt:         now,
		LastSeenAt:        now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return "", nil, classify(err, "")
	}
	return token, session, nil
}

// Authenticate 校验 token 并续期
func (s *sessionService) Authenticate(ctx context.Context, token string) (*Identity, *model.LoginSession, error) {
	if token == "" {
		return nil, nil, Unauthorized("Unauthorized")
	}

	id := hashToken(token)
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		svcErr := classify(err, "Unauthorized")
		if KindOf(svcErr) == KindNotFound {
			return nil, nil, Unauthorized("Unauthorized")
		}
		return nil, nil, svcErr
	}

	now := s.opts.Now().UTC()
	if session.Expired(now) {
		if err := s.repo.Delete(ctx, id); err != nil {
			logging.GetLogger().WithError(err).Warn("failed to delete expired session")
		}
		return nil, nil, Unauthorized("Session expired")
	}

	// 滑动续期,不超过绝对过期时间
	session.ExpiresAt = earliest(now.Add(s.opts.TTL), session.AbsoluteExpiresAt)
	session.LastSeenAt = now
	if err := s.repo.Touch(ctx, id, session.ExpiresAt, now); err != nil {
		return nil, nil, classify(err, "")
	}

	return &Identity{UserID: session.UserID, Role: session.Role}, session, nil
}

// Destroy 注销会话,token 不存在时视为成功
func (s *sessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, hashToken(token)); err != nil {
		logging.GetLogger().WithFields(logrus.Fields{"error": err.Error()}).Warn("failed to destroy session")
		return classify(err, "")
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
