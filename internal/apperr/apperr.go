// Package apperr 定义应用统一的失败类型
package apperr

import (
	"errors"
	"fmt"
)

// Kind 失败类别
type Kind string

const (
	KindDatabase    Kind = "database"     // 数据库打开/事务失败
	KindFileStorage Kind = "file_storage" // 本地文件读取/编码失败
	KindValidation  Kind = "validation"   // 输入校验失败
	KindGeminiAPI   Kind = "gemini_api"   // AI 响应格式错误或被拒绝
	KindNetwork     Kind = "network"      // 网络传输失败
	KindPermission  Kind = "permission"   // 预留：权限失败
)

// Failure 带类别的应用错误
type Failure struct {
	Kind    Kind
	Message string
	Code    int // 可选的状态码，仅 KindGeminiAPI 使用
	Err     error
}

func (e *Failure) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Failure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Database 数据库失败
func Database(message string, err error) *Failure {
	return &Failure{Kind: KindDatabase, Message: message, Err: err}
}

// FileStorage 文件存储失败
func FileStorage(message string, err error) *Failure {
	return &Failure{Kind: KindFileStorage, Message: message, Err: err}
}

// Validation 校验失败
func Validation(message string) *Failure {
	return &Failure{Kind: KindValidation, Message: message}
}

// GeminiAPI AI 接口失败，code 为可选状态码（无状态码时传 0）
func GeminiAPI(message string, code int, err error) *Failure {
	return &Failure{Kind: KindGeminiAPI, Message: message, Code: code, Err: err}
}

// Network 网络失败
func Network(message string, err error) *Failure {
	return &Failure{Kind: KindNetwork, Message: message, Err: err}
}

// Permission 权限失败（当前流程未使用，预留给访问控制扩展）
func Permission(message string) *Failure {
	return &Failure{Kind: KindPermission, Message: message}
}

// IsKind 判断错误链中是否存在指定类别的失败
func IsKind(err error, kind Kind) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}
