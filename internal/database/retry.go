package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"gorm.io/gorm"
)

// RetryPolicy 瞬时故障重试策略: 固定间隔,有限次数
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy 默认重试 2 次,间隔 2 秒
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Delay: 2 * time.Second}
}

// NewRetryPolicy 从配置构建重试策略
func NewRetryPolicy(cfg config.RetryConfig) RetryPolicy {
	policy := RetryPolicy{MaxRetries: cfg.MaxRetries, Delay: cfg.Delay}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return policy
}

// TransientError 重试耗尽后仍失败的瞬时故障
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("database unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Do 执行操作,遇到瞬时故障时按策略重试
// 非瞬时错误立即返回;重试耗尽返回 *TransientError
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > p.MaxRetries {
			return &TransientError{Attempts: attempt, Err: err}
		}

		logging.GetLogger().WithFields(logrus.Fields{
			"attempt":      attempt,
			"retries_left": p.MaxRetries - attempt + 1,
			"delay":        p.Delay.String(),
			"error":        err.Error(),
		}).Warn("database operation failed, retrying")

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// IsTransient 判断是否为可重试的连接类故障
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientSQLState(pgErr.Code)
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"connection reset", "connection refused", "broken pipe", "too many clients", "no such host"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// isTransientSQLState 连接异常类 SQLSTATE
func isTransientSQLState(code string) bool {
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case "53300", // too_many_connections
		"57P01", // admin_shutdown
		"57P02", // crash_shutdown
		"57P03": // cannot_connect_now
		return true
	}
	return false
}

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(fmt.Sprint(err)), "unique constraint")
}
