package types

import "github.com/pkg/errors"

// 公开错误类型标识
const (
	PublicHTTPErrorTypeGeneric           = "generic"
	PublicHTTPErrorTypeInvalidRequest    = "invalid_request"
	PublicHTTPErrorTypeSessionBusy       = "session_busy"
	PublicHTTPErrorTypeKeyLost           = "key_lost"
	PublicHTTPErrorTypeInsufficientFunds = "insufficient_voucher"
	PublicHTTPErrorTypeInconsistentState = "inconsistent_state"
	PublicHTTPErrorTypeInvalidTransition = "invalid_transition"
)

// PublicHTTPError 对外错误负载
type PublicHTTPError struct {
	Code   *int64  `json:"code"`
	Type   *string `json:"type"`
	Title  *string `json:"title"`
	Detail string  `json:"detail,omitempty"`
}

// Validate 校验必填字段
func (e *PublicHTTPError) Validate() error {
	if e.Code == nil {
		return errors.New("code is required")
	}
	if e.Type == nil {
		return errors.New("type is required")
	}
	if e.Title == nil {
		return errors.New("title is required")
	}
	return nil
}
