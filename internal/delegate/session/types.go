package session

import (
	"context"
	"time"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
)

// Mode 授权后端类型
type Mode string

const (
	// ModeSignless 能力会话：链上记录将替代密钥绑定到目标程序与动作白名单
	ModeSignless Mode = "signless"
	// ModeGasless 代付凭证：链上余额为目标程序的交易代付手续费
	ModeGasless Mode = "gasless"
)

// Authorization 链上授权的客户端视图。
// 余额与过期时间以链上读取为准，控制器从不本地递减。
type Authorization struct {
	ID               string
	Mode             Mode
	DelegatedAddress string
	TargetProgram    string
	AllowedActions   []string
	RemainingBalance uint64
	ExpiresAt        time.Time
}

// Expired 判断授权在给定时刻是否已过期
func (a *Authorization) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// CreateRequest 创建授权请求。
// Pair 为空时由后端生成新密钥对；非空时复用该密钥（续期 reuse 策略）。
type CreateRequest struct {
	Owner          string
	AllowedActions []string
	Duration       time.Duration
	Pair           *keystore.KeyPair
}

// AuthorizationBackend 授权后端。两个实现：signless（能力会话）与
// gasless（代付凭证），由配置在构造时选定。
type AuthorizationBackend interface {
	Mode() Mode

	// Validate 在任何 I/O 之前校验请求；失败返回 InvalidRequest 错误
	Validate(req *CreateRequest) error

	// Create 提交链上授权；成功后持久化密钥再返回
	Create(ctx context.Context, req *CreateRequest) (*Authorization, error)

	// Revoke 提交链上撤销；链上确认后才删除本地密钥记录
	Revoke(ctx context.Context, owner string, pair *keystore.KeyPair) error

	// Query 只读链上查询；不存在时返回 (nil, nil)，从不修改本地状态
	Query(ctx context.Context, owner string) (*Authorization, error)
}

// RenewPolicy 续期时的密钥策略
type RenewPolicy string

const (
	// RenewPolicyReuse 复用已持久化的密钥，重新授权同一地址
	RenewPolicyReuse RenewPolicy = "reuse"
	// RenewPolicyRotate 每次续期生成新密钥对
	RenewPolicyRotate RenewPolicy = "rotate"
)

// Snapshot 会话的一次一致性读取
type Snapshot struct {
	State         State
	Authorization *Authorization
	PairAddress   string
	ChainNow      time.Time
}
