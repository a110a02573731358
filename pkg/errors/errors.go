package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，决定对外的 HTTP 状态
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindForbidden
	KindConflict
	KindConnection
	KindProvisioning
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindConnection:
		return "connection"
	case KindProvisioning:
		return "provisioning"
	default:
		return "internal"
	}
}

// HTTPStatus Kind 到 HTTP 状态码的映射
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AppError 带分类的业务错误
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is 同 Kind 同 Message 视为同一错误，便于与哨兵错误比较
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// WithCause 复制哨兵错误并附加底层原因，errors.Is 仍可匹配原哨兵
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{Kind: e.Kind, Message: e.Message, Err: err}
}

func newf(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *AppError { return newf(KindValidation, format, args...) }
func NotFound(format string, args ...any) *AppError   { return newf(KindNotFound, format, args...) }
func Auth(format string, args ...any) *AppError       { return newf(KindAuth, format, args...) }
func Forbidden(format string, args ...any) *AppError  { return newf(KindForbidden, format, args...) }
func Conflict(format string, args ...any) *AppError   { return newf(KindConflict, format, args...) }

// Wrap 给底层错误附加分类与描述
func Wrap(kind Kind, err error, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf 取错误分类，非 AppError 视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// 租户路由、连接、序列、鉴权相关的哨兵错误
var (
	ErrTenantIdentifierMissing  = &AppError{Kind: KindValidation, Message: "No tenant ID provided in the request URL"}
	ErrTenantNotFoundOrInactive = &AppError{Kind: KindNotFound, Message: "Tenant not found or inactive"}
	ErrTenantConnectionFailed   = &AppError{Kind: KindConnection, Message: "Failed to connect to tenant database"}
	ErrSequenceGenerationFailed = &AppError{Kind: KindInternal, Message: "Failed to generate sequence value"}
	ErrProvisioningFailed       = &AppError{Kind: KindProvisioning, Message: "Tenant database is incompletely initialized"}

	ErrUnknownAction    = &AppError{Kind: KindForbidden, Message: "Access Denied: Unknown action"}
	ErrInvalidRole      = &AppError{Kind: KindForbidden, Message: "Access Denied: Invalid role"}
	ErrPermissionDenied = &AppError{Kind: KindForbidden, Message: "Access Denied: Permission denied"}

	ErrMissingToken = &AppError{Kind: KindAuth, Message: "Unauthorized: No token provided"}
	ErrInvalidToken = &AppError{Kind: KindAuth, Message: "Invalid or Expired Token"}
)

// Is/As 透传，调用方无需再引入标准库 errors
func Is(err, target error) bool    { return stderrors.Is(err, target) }
func As(err error, target any) bool { return stderrors.As(err, target) }
func New(text string) error         { return stderrors.New(text) }
