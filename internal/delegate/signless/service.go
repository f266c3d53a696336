package signless

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
)

// Config 能力会话后端配置
type Config struct {
	// TargetProgram 授权绑定的目标程序地址
	TargetProgram string
	// Vocabulary 目标程序导出的动作全集，动作白名单必须是其子集。
	// 为空时不校验子集关系（目标程序接受任意动作名）。
	Vocabulary []string
	// MaxDuration 单次授权时长上限，零值表示不设上限
	MaxDuration time.Duration
}

// Service 能力会话（signless）授权后端。链上记录将替代密钥绑定到
// 目标程序与动作白名单；替代密钥在白名单内的动作无需钱包确认。
type Service struct {
	cfg        Config
	keys       *keystore.Service
	rpc        chain.Client
	vocabulary map[string]bool
}

// NewService 创建能力会话后端
func NewService(cfg Config, keys *keystore.Service, rpc chain.Client) (*Service, error) {
	if cfg.TargetProgram == "" {
		return nil, errors.New("target program is required")
	}
	if keys == nil || rpc == nil {
		return nil, errors.New("keystore and chain client are required")
	}

	vocabulary := make(map[string]bool, len(cfg.Vocabulary))
	for _, action := range cfg.Vocabulary {
		vocabulary[action] = true
	}

	return &Service{
		cfg:        cfg,
		keys:       keys,
		rpc:        rpc,
		vocabulary: vocabulary,
	}, nil
}

// Mode 返回 signless
func (s *Service) Mode() session.Mode {
	return session.ModeSignless
}

// Validate 在任何 I/O 之前校验请求：动作白名单非空且落在目标程序的
// 动作全集内，时长为正且不超上限
func (s *Service) Validate(req *session.CreateRequest) error {
	if req == nil || req.Owner == "" {
		return session.NewInvalidRequestError("owner is required")
	}
	if len(req.AllowedActions) == 0 {
		return session.NewInvalidRequestError("allowed actions must not be empty")
	}
	if len(s.vocabulary) > 0 {
		for _, action := range req.AllowedActions {
			if !s.vocabulary[action] {
				return session.NewInvalidRequestError("action is not exported by the target program: " + action)
			}
		}
	}
	if req.Duration <= 0 {
		return session.NewInvalidRequestError("session duration must be positive")
	}
	if s.cfg.MaxDuration > 0 && req.Duration > s.cfg.MaxDuration {
		return session.NewInvalidRequestError("session duration exceeds the allowed maximum")
	}
	return nil
}

// Create 创建能力会话：生成（或复用）替代密钥，提交链上授权，
// 链上确认后持久化密钥，再读回权威记录。
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
		Mode:             chain.ModeSession,
		Owner:            req.Owner,
		Program:          s.cfg.TargetProgram,
		DelegatedAddress: pair.Address,
		AllowedActions:   req.AllowedActions,
		Duration:         req.Duration,
	})
	if err != nil {
		return nil, session.NewAuthorizationError(s.cfg.TargetProgram, "chain rejected session authorization", err)
	}

	// 密钥持久化排在链上确认之后：链上已授权但本地写入失败意味着
	// 授权了一个客户端无法复现的密钥
	if err := s.keys.Persist(ctx, s.cfg.TargetProgram, req.Owner, pair); err != nil {
		return nil, session.NewInconsistentStateError(s.cfg.TargetProgram,
			"session authorized on chain but key persistence failed", err)
	}

	record, err := s.rpc.QueryAuthorization(ctx, req.Owner, s.cfg.TargetProgram)
	if err != nil {
		return nil, session.NewAuthorizationError(s.cfg.TargetProgram, "failed to read back session record", err)
	}
	if record == nil {
		return nil, session.NewInconsistentStateError(s.cfg.TargetProgram,
			"session record is missing right after authorization", nil)
	}

	log.Info().
		Str("program", s.cfg.TargetProgram).
		Str("delegated_address", pair.Address).
		Time("expires_at", record.ExpiresAt).
		Msg("Capability session authorized")

	return recordToAuthorization(record), nil
}

// Revoke 撤销能力会话：用替代密钥签署撤销负载并提交；
// 链上确认后才删除本地密钥记录。
func (s *Service) Revoke(ctx context.Context, owner string, pair *keystore.KeyPair) error {
	if pair == nil {
		return session.NewKeyLostError(s.cfg.TargetProgram)
	}

	sig, err := chain.SignRevocation(pair.Secret, s.cfg.TargetProgram, pair.Address)
	if err != nil {
		return errors.Wrap(err, "failed to sign revocation")
	}

	_, err = s.rpc.SubmitRevocation(ctx, &chain.RevocationRequest{
		Mode:             chain.ModeSession,
		Owner:            owner,
		Program:          s.cfg.TargetProgram,
		DelegatedAddress: pair.Address,
		Signature:        sig,
	})
	if err != nil {
		return session.NewAuthorizationError(s.cfg.TargetProgram, "chain rejected session revocation", err)
	}

	if err := s.keys.Delete(ctx, s.cfg.TargetProgram, owner); err != nil {
		return session.NewInconsistentStateError(s.cfg.TargetProgram,
			"session revoked on chain but local key deletion failed", err)
	}

	log.Info().
		Str("program", s.cfg.TargetProgram).
		Str("delegated_address", pair.Address).
		Msg("Capability session revoked")

	return nil
}

// Query 只读链上查询；无记录时返回 (nil, nil)
func (s *Service) Query(ctx context.Context, owner string) (*session.Authorization, error) {
	record, err := s.rpc.QueryAuthorization(ctx, owner, s.cfg.TargetProgram)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query session record")
	}
	if record == nil {
		return nil, nil
	}
	return recordToAuthorization(record), nil
}

func recordToAuthorization(record *chain.AuthorizationRecord) *session.Authorization {
	return &session.Authorization{
		ID:               record.ID,
		Mode:             session.ModeSignless,
		DelegatedAddress: record.DelegatedAddress,
		TargetProgram:    record.Program,
		AllowedActions:   record.AllowedActions,
		ExpiresAt:        record.ExpiresAt,
	}
}
