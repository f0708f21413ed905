package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误分类：所有业务错误都归入以下四类，handler 层据此映射 HTTP 状态码
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// NotFoundf 引用的里程碑/会话不存在
func NotFoundf(format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), ErrNotFound)
}

// InvalidStatef 操作在当前状态下不合法（编辑已完成里程碑、停止已停止会话等）
func InvalidStatef(format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), ErrInvalidState)
}

// Conflictf 并发冲突（actor 已有活跃计时会话）
func Conflictf(format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), ErrConflict)
}

// Validationf 输入校验失败（负数小时、付款比例超过100等）
func Validationf(format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), ErrValidation)
}

// HTTPStatus 将业务错误映射为 HTTP 状态码
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code 将业务错误映射为稳定的机器可读错误码
// 客户端依赖 "conflict" 区分“先停止当前计时器”和一般性失败
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "internal_error"
	}
}
