package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 领域层错误都使用此类型，带上模块与错误代码
//   - 通过 IsXXX 检查，支持 fmt.Errorf("%w") 包装后的错误
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Catalog 错误：NOT_FOUND, UNAVAILABLE
//   - Recall 错误：UNAVAILABLE（熔断打开、超时）
//   - Config 错误：INVALID_INPUT
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_SUPPORTED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "catalog", "recall"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
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
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleCatalog = "catalog" // 商品元数据模块
	ModuleRecall  = "recall"  // 召回模块
	ModuleConfig  = "config"  // 配置模块
	ModuleModel   = "model"   // 离线模型构建模块
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, "", ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, "", ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, "", ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, "", ErrorCodeInvalidInput)
}

func hasCode(err error, module, code string) bool {
	domainErr := GetDomainError(err)
	if domainErr == nil {
		return false
	}
	if module != "" && domainErr.Module != module {
		return false
	}
	return domainErr.Code == code
}

// Catalog / Recall 错误定义
var (
	// ErrItemNotFound 表示商品元数据不存在
	ErrItemNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: item not found")

	// ErrCatalogUnavailable 表示商品元数据源不可用（尚未构建或后端故障）
	ErrCatalogUnavailable = NewDomainError(ModuleCatalog, ErrorCodeUnavailable, "catalog: unavailable")

	// ErrSourceUnavailable 表示召回源不可用（熔断打开）
	ErrSourceUnavailable = NewDomainError(ModuleRecall, ErrorCodeUnavailable, "recall: source unavailable")
)
