package service

import (
	"errors"
	"fmt"

	"github.com/surya-d-naidu/UniOD/internal/database"
	"gorm.io/gorm"
)

// ErrorKind 错误分类
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// Error 业务错误
// Message 面向用户展示,Err 仅用于服务端日志
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按分类比较,便于 errors.Is(err, ErrNotFound) 这类判断
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// 分类哨兵,只用于 errors.Is 比较
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrTransient    = &Error{Kind: KindTransient}
)

// Unauthorized 未认证
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden 无权限
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound 资源不存在
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict 状态冲突
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Validation 参数校验失败
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Internal 内部错误
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf 返回错误分类,非业务错误视为内部错误
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// classify 将仓储层错误转换为业务错误
func classify(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}

	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var transientErr *database.TransientError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(notFoundMessage)
	case errors.As(err, &transientErr), database.IsTransient(err):
		return &Error{Kind: KindTransient, Message: "Database temporarily unavailable, please retry", Err: err}
	case database.IsUniqueViolation(err):
		return &Error{Kind: KindConflict, Message: "Record already exists", Err: err}
	default:
		return Internal("Internal server error", err)
	}
}
