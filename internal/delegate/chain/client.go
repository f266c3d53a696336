package chain

import (
	"context"
	"fmt"
	"time"
)

// 授权模式
const (
	ModeSession = "session" // 能力会话（signless）
	ModeVoucher = "voucher" // 代付凭证（gasless）
)

// AuthorizationRequest 链上授权请求
type AuthorizationRequest struct {
	Mode             string
	Owner            string
	Program          string
	DelegatedAddress string
	AllowedActions   []string
	Duration         time.Duration
	// Balance 凭证初始余额（最小货币单位，仅 voucher 模式）
	Balance uint64
}

// RevocationRequest 链上撤销请求
type RevocationRequest struct {
	Mode             string
	Owner            string
	Program          string
	DelegatedAddress string
	VoucherID        string
	// Signature 由被委托密钥对撤销负载的签名
	Signature []byte
}

// AuthorizationRecord 链上授权记录（能力会话）
type AuthorizationRecord struct {
	ID               string
	Owner            string
	Program          string
	DelegatedAddress string
	AllowedActions   []string
	ExpiresAt        time.Time
}

// VoucherRecord 链上凭证记录（余额只由链上程序消费，客户端从不本地递减）
type VoucherRecord struct {
	ID               string
	Owner            string
	Program          string
	DelegatedAddress string
	RemainingBalance uint64
	ExpiresAt        time.Time
}

// TxReceipt 交易回执
type TxReceipt struct {
	TxHash      string
	BlockNumber uint64
	Timestamp   time.Time
}

// SignedTransaction 已签名的动作交易
type SignedTransaction struct {
	Program   string
	Action    string
	Payload   []byte
	Nonce     uint64
	Signer    string
	Signature []byte
	Raw       []byte
}

// Client is the capability set the delegation core requires from the chain.
// Any backend implementing it is substitutable; queries return (nil, nil)
// when no record exists.
type Client interface {
	SubmitAuthorization(ctx context.Context, req *AuthorizationRequest) (*TxReceipt, error)
	QueryAuthorization(ctx context.Context, owner, program string) (*AuthorizationRecord, error)
	SubmitRevocation(ctx context.Context, req *RevocationRequest) (*TxReceipt, error)
	QueryVoucherBalance(ctx context.Context, owner, program string) (*VoucherRecord, error)
	SubmitTransaction(ctx context.Context, tx *SignedTransaction) (*TxReceipt, error)
	ChainTime(ctx context.Context) (time.Time, error)
}

// RPC 层错误码（与网关返回的 code 字段对应）
const (
	CodeRejected            = "rejected"
	CodeInsufficientVoucher = "insufficient_voucher"
	CodeUnauthorized        = "unauthorized"
	CodeUnavailable         = "unavailable"
)

// RPCError 链上/网关拒绝错误
type RPCError struct {
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("chain rpc error [%s]: %s", e.Code, e.Message)
}

// IsCode 判断错误链中是否包含指定错误码的 RPCError
func IsCode(err error, code string) bool {
	for err != nil {
		if rpcErr, ok := err.(*RPCError); ok {
			return rpcErr.Code == code
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
