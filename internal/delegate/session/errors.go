package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition 非法的会话状态迁移
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrorType 委托错误分类
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeGeneration 熵源/存储失败导致密钥创建失败（当前操作失败，可重试）
	ErrTypeGeneration
	// ErrTypeAuthorization 链上拒绝创建/撤销（状态回退到操作前）
	ErrTypeAuthorization
	// ErrTypeInconsistentState 链上与本地存储不一致（触发自愈回到 Absent）
	ErrTypeInconsistentState
	// ErrTypeInsufficientVoucher 链上层面的代付余额不足（按交易上报，不影响会话状态）
	ErrTypeInsufficientVoucher
	// ErrTypeSessionBusy 已有变更操作在途（立即拒绝，不排队）
	ErrTypeSessionBusy
	// ErrTypeKeyLost 本地密钥丢失导致无法撤销
	ErrTypeKeyLost
	// ErrTypeInvalidRequest 非法的动作列表/时长（在任何 I/O 之前拒绝）
	ErrTypeInvalidRequest
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeGeneration:
		return "GENERATION"
	case ErrTypeAuthorization:
		return "AUTHORIZATION"
	case ErrTypeInconsistentState:
		return "INCONSISTENT_STATE"
	case ErrTypeInsufficientVoucher:
		return "INSUFFICIENT_VOUCHER"
	case ErrTypeSessionBusy:
		return "SESSION_BUSY"
	case ErrTypeKeyLost:
		return "KEY_LOST"
	case ErrTypeInvalidRequest:
		return "INVALID_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// Error 委托域错误
type Error struct {
	Type     ErrorType
	Message  string
	Program  string
	Original error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))
	if e.Program != "" {
		sb.WriteString(fmt.Sprintf(" [program: %s]", e.Program))
	}
	if e.Original != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Original))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Original
}

// NewGenerationError creates a key generation error
func NewGenerationError(program string, err error) *Error {
	return &Error{
		Type:     ErrTypeGeneration,
		Message:  "failed to generate key pair",
		Program:  program,
		Original: err,
	}
}

// NewAuthorizationError creates a chain rejection error
func NewAuthorizationError(program, msg string, err error) *Error {
	return &Error{
		Type:     ErrTypeAuthorization,
		Message:  msg,
		Program:  program,
		Original: err,
	}
}

// NewInconsistentStateError creates a chain/local divergence error
func NewInconsistentStateError(program, msg string, err error) *Error {
	return &Error{
		Type:     ErrTypeInconsistentState,
		Message:  msg,
		Program:  program,
		Original: err,
	}
}

// NewInsufficientVoucherError creates a voucher spend rejection error
func NewInsufficientVoucherError(program string, err error) *Error {
	return &Error{
		Type:     ErrTypeInsufficientVoucher,
		Message:  "voucher balance exhausted",
		Program:  program,
		Original: err,
	}
}

// NewSessionBusyError creates a concurrent mutation rejection error
func NewSessionBusyError(program string) *Error {
	return &Error{
		Type:    ErrTypeSessionBusy,
		Message: "a lifecycle mutation is already in flight",
		Program: program,
	}
}

// NewKeyLostError creates an error for revocations without local key material
func NewKeyLostError(program string) *Error {
	return &Error{
		Type:    ErrTypeKeyLost,
		Message: "local key material is lost, the on-chain grant stays orphaned until it expires",
		Program: program,
	}
}

// NewInvalidRequestError creates a pre-I/O request validation error
func NewInvalidRequestError(msg string) *Error {
	return &Error{
		Type:    ErrTypeInvalidRequest,
		Message: msg,
	}
}

// IsType 判断错误链中是否包含指定分类的委托错误
func IsType(err error, t ErrorType) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// AsError 提取错误链中的委托域错误
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}

// IsInvalidTransition 判断错误链中是否包含非法状态迁移
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
