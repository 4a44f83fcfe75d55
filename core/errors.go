package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Feature 错误：SCHEMA_MISMATCH, NOT_FITTED
//   - Artifact 错误：ARTIFACT_LOAD
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 其他领域错误
type DomainError struct {
	Code    string // 错误代码（如 "SCHEMA_MISMATCH", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "feature", "artifact", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型（含 %w 包装链）
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链上的 DomainError，没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound       = "NOT_FOUND"       // 资源不存在
	ErrorCodeNotSupported   = "NOT_SUPPORTED"   // 操作不支持
	ErrorCodeInvalidInput   = "INVALID_INPUT"   // 输入无效
	ErrorCodeInternalError  = "INTERNAL_ERROR"  // 内部错误
	ErrorCodeSchemaMismatch = "SCHEMA_MISMATCH" // transform 输出列集与 fit 期不一致
	ErrorCodeNotFitted      = "NOT_FITTED"      // 组件尚未 fit，无法 replay
	ErrorCodeArtifactLoad   = "ARTIFACT_LOAD"   // 模型工件缺失/不完整/损坏
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleFeature  = "feature"  // 特征模块
	ModuleModel    = "model"    // 模型模块
	ModuleArtifact = "artifact" // 工件模块
	ModuleService  = "service"  // 服务模块
)

// 领域错误定义（使用统一的 DomainError）
var (
	// ErrSchemaMismatch 表示 replay 模式下的输出列集与 fit 期 feature_names 不一致。
	// 这是一个必须显式暴露的错误：列数不符的矩阵绝不允许流入 scaler/模型。
	ErrSchemaMismatch = NewDomainError(ModuleFeature, ErrorCodeSchemaMismatch, "feature: transform column set diverged from fitted feature names")

	// ErrNotFitted 表示组件尚未 fit（无 fit 期统计量可 replay）。
	ErrNotFitted = NewDomainError(ModuleFeature, ErrorCodeNotFitted, "feature: engineer is not fitted")

	// ErrArtifactLoad 表示持久化工件缺失、不完整或损坏。
	// 调用方应将其降级为"模型不可用"，跳过该行的 enrichment，而非让宿主进程崩溃。
	ErrArtifactLoad = NewDomainError(ModuleArtifact, ErrorCodeArtifactLoad, "artifact: bundle is absent, partial or corrupt")
)

// IsSchemaMismatch 检查错误是否为 schema 不一致
func IsSchemaMismatch(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Code == ErrorCodeSchemaMismatch
}

// IsNotFitted 检查错误是否为未 fit
func IsNotFitted(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Code == ErrorCodeNotFitted
}

// IsArtifactLoad 检查错误是否为工件加载失败
func IsArtifactLoad(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Code == ErrorCodeArtifactLoad
}
