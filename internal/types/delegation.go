package types

import (
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
)

// PostCreateSessionPayload 创建会话请求
type PostCreateSessionPayload struct {
	// AllowedActions 动作白名单；gasless 模式下可留空
	AllowedActions []string `json:"allowed_actions,omitempty"`
	// DurationSeconds 会话时长（秒），缺省使用服务端配置
	DurationSeconds int64 `json:"duration_seconds,omitempty"`
}

// Validate 校验请求负载
func (p *PostCreateSessionPayload) Validate() error {
	if p.DurationSeconds < 0 {
		return errors.New("duration_seconds must not be negative")
	}
	return nil
}

// PostRenewSessionPayload 续期会话请求
type PostRenewSessionPayload struct {
	DurationSeconds int64 `json:"duration_seconds,omitempty"`
}

// Validate 校验请求负载
func (p *PostRenewSessionPayload) Validate() error {
	if p.DurationSeconds < 0 {
		return errors.New("duration_seconds must not be negative")
	}
	return nil
}

// PostActionPayload 委托动作请求
type PostActionPayload struct {
	Action  *string `json:"action"`
	Payload string  `json:"payload,omitempty"`
}

// Validate 校验请求负载
func (p *PostActionPayload) Validate() error {
	if swag.StringValue(p.Action) == "" {
		return errors.New("action is required")
	}
	return nil
}

// SessionResponse 会话视图
type SessionResponse struct {
	State            *string         `json:"state"`
	Mode             string          `json:"mode,omitempty"`
	DelegatedAddress string          `json:"delegated_address,omitempty"`
	TargetProgram    string          `json:"target_program,omitempty"`
	AllowedActions   []string        `json:"allowed_actions,omitempty"`
	ExpiresAt        strfmt.DateTime `json:"expires_at,omitempty"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	Countdown        string          `json:"countdown,omitempty"`
}

// Validate 校验响应负载
func (r *SessionResponse) Validate() error {
	if r.State == nil {
		return errors.New("state is required")
	}
	return nil
}

// BalanceResponse 凭证余额视图
type BalanceResponse struct {
	VoucherID string  `json:"voucher_id,omitempty"`
	Raw       *string `json:"raw"`
	Formatted *string `json:"formatted"`
}

// Validate 校验响应负载
func (r *BalanceResponse) Validate() error {
	if r.Raw == nil {
		return errors.New("raw is required")
	}
	if r.Formatted == nil {
		return errors.New("formatted is required")
	}
	return nil
}

// ActionResponse 交易回执视图
type ActionResponse struct {
	TxHash      *string         `json:"tx_hash"`
	BlockNumber int64           `json:"block_number,omitempty"`
	Timestamp   strfmt.DateTime `json:"timestamp,omitempty"`
}

// Validate 校验响应负载
func (r *ActionResponse) Validate() error {
	if swag.StringValue(r.TxHash) == "" {
		return errors.New("tx_hash is required")
	}
	return nil
}

// GetTokenResponse 开发用令牌响应
type GetTokenResponse struct {
	Token *string `json:"token"`
}

// Validate 校验响应负载
func (r *GetTokenResponse) Validate() error {
	if swag.StringValue(r.Token) == "" {
		return errors.New("token is required")
	}
	return nil
}
