package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// fakeClock 可控时钟
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClockedSessions(t *testing.T, clock *fakeClock) (service.SessionService, repository.SessionRepository) {
	db := setupTestDB(t)
	repo := repository.NewSessionRepository(db, database.RetryPolicy{Delay: time.Millisecond})
	sessions := service.NewSessionService(repo, service.SessionOptions{
		TTL:         time.Hour,
		MaxLifetime: 3 * time.Hour,
		Now:         clock.Now,
	})
	return sessions, repo
}

// TestSessionService_CreateAndAuthenticate 测试创建与认证
func TestSessionService_CreateAndAuthenticate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	sessions, repo := newClockedSessions(t, clock)
	ctx := context.Background()

	token, session, err := sessions.Create(ctx, &model.User{ID: 5, Role: model.RoleStudent})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	// 数据库中不保存原始 token
	assert.NotEqual(t, token, session.ID)
	_, err = repo.FindByID(ctx, token)
	assert.Error(t, err)

	identity, _, err := sessions.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), identity.UserID)
	assert.Equal(t, model.RoleStudent, identity.Role)

	_, _, err = sessions.Authenticate(ctx, "forged-token")
	assert.Equal(t, service.KindUnauthorized, service.KindOf(err))
	_, _, err = sessions.Authenticate(ctx, "")
	assert.Equal(t, service.KindUnauthorized, service.KindOf(err))
}

// TestSessionService_SlidingExpiry 测试滑动续期与绝对过期
func TestSessionService_SlidingExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	sessions, _ := newClockedSessions(t, clock)
	ctx := context.Background()

	token, _, err := sessions.Create(ctx, &model.User{ID: 5, Role: model.RoleStudent})
	require.NoError(t, err)

	// 每 50 分钟访问一次,滑动过期不断续期
	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Minute)
		_, session, err := sessions.Authenticate(ctx, token)
		require.NoError(t, err, "request %d", i)
		assert.False(t, session.ExpiresAt.After(session.AbsoluteExpiresAt))
	}

	// 超过绝对生命周期后失效
	clock.Advance(40 * time.Minute)
	_, _, err = sessions.Authenticate(ctx, token)
	assert.Equal(t, service.KindUnauthorized, service.KindOf(err))
}

// TestSessionService_IdleExpiry 测试空闲过期后不可再用
func TestSessionService_IdleExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	sessions, repo := newClockedSessions(t, clock)
	ctx := context.Background()

	token, session, err := sessions.Create(ctx, &model.User{ID: 5, Role: model.RoleStudent})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, _, err = sessions.Authenticate(ctx, token)
	assert.Equal(t, service.KindUnauthorized, service.KindOf(err))

	// 过期会话被删除
	_, err = repo.FindByID(ctx, session.ID)
	assert.Error(t, err)

	clock.Advance(-30 * time.Minute)
	_, _, err = sessions.Authenticate(ctx, token)
	assert.Equal(t, service.KindUnauthorized, service.KindOf(err))
}

// TestSessionService_Destroy 测试注销后不可再用
func TestSessionService_Destroy(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	sessions, _ := newClockedSessions(t, clock)
	ctx := context.Background()

	token, _, err := sessions.Create(ctx, &model.User{ID: 5, Role: model.RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, sessions.Destroy(ctx, token))
	_, _, err = sessions.Authenticate(ctx, token)
	assert.Equal(t, service.KindUnauthorized, service.KindOf(err))

	assert.NoError(t, sessions.Destroy(ctx, token))
	assert.NoError(t, sessions.Destroy(ctx, ""))
}

// TestSessionService_LoginPurgesExpired 测试登录时清理过期会话
func TestSessionService_LoginPurgesExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	sessions, repo := newClockedSessions(t, clock)
	ctx := context.Background()

	_, stale, err := sessions.Create(ctx, &model.User{ID: 5, Role: model.RoleStudent})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, _, err = sessions.Create(ctx, &model.User{ID: 6, Role: model.RoleStudent})
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, stale.ID)
	assert.Error(t, err)
}
