package gasless

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
)

// Config 代付凭证后端配置
type Config struct {
	// TargetProgram 凭证绑定的目标程序地址
	TargetProgram string
	// VoucherLimit 单次签发的凭证额度（最小货币单位）
	VoucherLimit uint64
	// MaxDuration 单次签发时长上限，零值表示不设上限
	MaxDuration time.Duration
}

// Service 代付凭证（gasless）授权后端。链上凭证为被委托地址发往目标
// 程序的交易代付手续费；余额由链上程序隐式消费，客户端从不预扣。
type Service struct {
	cfg  Config
	keys *keystore.Service
	rpc  chain.Client
}

// NewService 创建代付凭证后端
func NewService(cfg Config, keys *keystore.Service, rpc chain.Client) (*Service, error) {
	if cfg.TargetProgram == "" {
		return nil, errors.New("target program is required")
	}
	if cfg.VoucherLimit == 0 {
		return nil, errors.New("voucher limit is required")
	}
	if keys == nil || rpc == nil {
		return nil, errors.New("keystore and chain client are required")
	}

	return &Service{
		cfg:  cfg,
		keys: keys,
		rpc:  rpc,
	}, nil
}

// Mode 返回 gasless
func (s *Service) Mode() session.Mode {
	return session.ModeGasless
}

// Validate 在任何 I/O 之前校验请求。凭证不限制动作集合，
// 动作白名单留空是合法的。
func (s *Service) Validate(req *session.CreateRequest) error {
	if req == nil || req.Owner == "" {
		return session.NewInvalidRequestError("owner is required")
	}
	if req.Duration <= 0 {
		return session.NewInvalidRequestError("voucher duration must be positive")
	}
	if s.cfg.MaxDuration > 0 && req.Duration > s.cfg.MaxDuration {
		return session.NewInvalidRequestError("voucher duration exceeds the allowed maximum")
	}
	return nil
}

// Create 签发凭证：生成（或复用）被委托密钥，按配置额度提交链上签发，
// 链上确认后持久化密钥，再读回权威余额。
func (s *Service) Create(ctx context.Context, req *session.CreateRequest) (*session.Authorization, error) {
	pair := req.Pair
	if pair == nil {
		generated, err := s.keys.Generate(s.cfg.TargetProgram)
		if err != nil {
			return nil, session.NewGenerationError(s.cfg.TargetProgram, err)
		}
		pair = generated
	}

	_, err := s.rpc.SubmitAuthorization(ctx, &chain.AuthorizationRequest{
		Mode:             chain.ModeVoucher,
		Owner:            req.Owner,
		Program:          s.cfg.TargetProgram,
		DelegatedAddress: pair.Address,
		Duration:         req.Duration,
		Balance:          s.cfg.VoucherLimit,
	})
	if err != nil {
		return nil, session.NewAuthorizationError(s.cfg.TargetProgram, "chain rejected voucher issuance", err)
	}

	if err := s.keys.Persist(ctx, s.cfg.TargetProgram, req.Owner, pair); err != nil {
		return nil, session.NewInconsistentStateError(s.cfg.TargetProgram,
			"voucher issued on chain but key persistence failed", err)
	}

	voucher, err := s.rpc.QueryVoucherBalance(ctx, req.Owner, s.cfg.TargetProgram)
	if err != nil {
		return nil, session.NewAuthorizationError(s.cfg.TargetProgram, "failed to read back voucher record", err)
	}
	if voucher == nil {
		return nil, session.NewInconsistentStateError(s.cfg.TargetProgram,
			"voucher record is missing right after issuance", nil)
	}

	log.Info().
		Str("program", s.cfg.TargetProgram).
		Str("delegated_address", pair.Address).
		Uint64("balance", voucher.RemainingBalance).
		Time("expires_at", voucher.ExpiresAt).
		Msg("Spend limit voucher issued")

	return voucherToAuthorization(voucher), nil
}

// Revoke 吊销凭证并回收剩余余额；链上确认后才删除本地密钥记录
func (s *Service) Revoke(ctx context.Context, owner string, pair *keystore.KeyPair) error {
	if pair == nil {
		return session.NewKeyLostError(s.cfg.TargetProgram)
	}

	voucher, err := s.rpc.QueryVoucherBalance(ctx, owner, s.cfg.TargetProgram)
	if err != nil {
		return errors.Wrap(err, "failed to query voucher record")
	}

	var voucherID string
	if voucher != nil {
		voucherID = voucher.ID
	}

	sig, err := chain.SignRevocation(pair.Secret, s.cfg.TargetProgram, pair.Address)
	if err != nil {
		return errors.Wrap(err, "failed to sign revocation")
	}

	_, err = s.rpc.SubmitRevocation(ctx, &chain.RevocationRequest{
		Mode:             chain.ModeVoucher,
		Owner:            owner,
		Program:          s.cfg.TargetProgram,
		DelegatedAddress: pair.Address,
		VoucherID:        voucherID,
		Signature:        sig,
	})
	if err != nil {
		return session.NewAuthorizationError(s.cfg.TargetProgram, "chain rejected voucher revocation", err)
	}

	if err := s.keys.Delete(ctx, s.cfg.TargetProgram, owner); err != nil {
		return session.NewInconsistentStateError(s.cfg.TargetProgram,
			"voucher revoked on chain but local key deletion failed", err)
	}

	log.Info().
		Str("program", s.cfg.TargetProgram).
		Str("voucher_id", voucherID).
		Msg("Spend limit voucher revoked")

	return nil
}

// Query 只读链上查询；无凭证时返回 (nil, nil)
func (s *Service) Query(ctx context.Context, owner string) (*session.Authorization, error) {
	voucher, err := s.rpc.QueryVoucherBalance(ctx, owner, s.cfg.TargetProgram)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query voucher record")
	}
	if voucher == nil {
		return nil, nil
	}
	return voucherToAuthorization(voucher), nil
}

func voucherToAuthorization(voucher *chain.VoucherRecord) *session.Authorization {
	return &session.Authorization{
		ID:               voucher.ID,
		Mode:             session.ModeGasless,
		DelegatedAddress: voucher.DelegatedAddress,
		TargetProgram:    voucher.Program,
		RemainingBalance: voucher.RemainingBalance,
		ExpiresAt:        voucher.ExpiresAt,
	}
}
