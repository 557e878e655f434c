// Package types defines core data types and enums shared by the repair passes.
package types

import (
	"errors"
	"fmt"
)

// EditKind 编辑类型
type EditKind string

const (
	EditInsert  EditKind = "insert"
	EditReplace EditKind = "replace"
	EditDelete  EditKind = "delete"
)

// Edit records one change applied by the math-delimiter fixer.
// Position is a byte offset into the input document.
type Edit struct {
	Kind     EditKind `json:"kind"`
	Position int      `json:"position"`
	Before   string   `json:"before"`
	After    string   `json:"after"`
	Reason   string   `json:"reason"`
}

// String renders the edit the way the CLI prints its edit log.
func (e Edit) String() string {
	return fmt.Sprintf("%s@%d %q -> %q: %s", e.Kind, e.Position, e.Before, e.After, e.Reason)
}

// Mode 显示模式，对应聊天界面的三种回复模式
type Mode string

const (
	ModeStandard     Mode = "standard"     // 直接显示整个缓冲区
	ModeImprove      Mode = "improve"      // 只显示 "### Revised Answer" 部分
	ModeIntermediate Mode = "intermediate" // 流式显示全部，结束时只保留最终答案
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeStandard, ModeImprove, ModeIntermediate:
		return true
	}
	return false
}

// Config 应用配置
type Config struct {
	DefaultLanguage   string `json:"default_language"`   // 无法猜测语言时使用的代码块语言
	KeepFenceChar     bool   `json:"keep_fence_char"`    // 保留原始围栏字符（` 或 ~）
	CloseOnNewline    bool   `json:"close_on_newline"`   // 行尾自动闭合未闭合的数学公式
	CanonicalizeTags  bool   `json:"canonicalize_tags"`  // 通过 chroma 将语言别名规范化
	ExtendedDetection bool   `json:"extended_detection"` // 启发式失败时使用 enry/chroma 检测语言
	Mode              Mode   `json:"mode"`
	LogLevel          string `json:"log_level"`
	LogFile           string `json:"log_file"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
