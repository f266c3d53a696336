package api

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Males-For-Females-llc/dapps/internal/auth"
	"github.com/Males-For-Females-llc/dapps/internal/config"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/display"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/gasless"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/signless"
	"github.com/Males-For-Females-llc/dapps/internal/metrics"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

func NewJWTManager(cfg config.Server) *auth.JWTManager {
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenDuration)
}

// NewKeyStorage 根据配置选择密钥存储驱动
func NewKeyStorage(cfg config.Server) (keystore.Storage, error) {
	switch cfg.KeyStore.Driver {
	case "fs", "":
		return keystore.NewFileSystemStorage(cfg.KeyStore.Path)
	case "redis":
		if cfg.KeyStore.RedisEndpoint == "" {
			return nil, errors.New("keystore redis endpoint is not configured")
		}

		client := redis.NewClient(&redis.Options{
			Addr: cfg.KeyStore.RedisEndpoint,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "failed to ping redis")
		}

		return keystore.NewRedisStorage(client), nil
	case "memory":
		log.Warn().Msg("Using in-memory key storage, keys will not survive restarts")
		return keystore.NewMemoryStorage(), nil
	default:
		return nil, errors.Errorf("unknown keystore driver: %s", cfg.KeyStore.Driver)
	}
}

func NewKeyStoreService(cfg config.Server, storage keystore.Storage) (*keystore.Service, error) {
	if cfg.KeyStore.EncryptionKey == "" {
		return nil, errors.New("keystore encryption key is not configured")
	}
	return keystore.NewService(storage, cfg.KeyStore.EncryptionKey)
}

// NewChainClient 创建网关客户端。优先使用 BackendEndpoint（托管网关），
// 未配置时直连节点 HTTP 端点。
func NewChainClient(cfg config.Server) (chain.Client, error) {
	endpoint := cfg.Delegate.BackendEndpoint
	if endpoint == "" {
		endpoint = cfg.Delegate.NodeEndpoint
	}

	return chain.NewGateway(chain.GatewayConfig{
		Endpoint:  endpoint,
		JWTSecret: cfg.Auth.JWTSecret,
		JWTIssuer: cfg.Auth.JWTIssuer,
	})
}

// NewAuthorizationBackend 按配置选定授权后端（构造时决定，运行期不切换）
func NewAuthorizationBackend(cfg config.Server, keys *keystore.Service, chainClient chain.Client) (session.AuthorizationBackend, error) {
	switch cfg.Delegate.Mode {
	case "signless", "":
		return signless.NewService(signless.Config{
			TargetProgram: cfg.Delegate.TargetProgram,
			Vocabulary:    cfg.Delegate.AllowedActions,
		}, keys, chainClient)
	case "gasless":
		return gasless.NewService(gasless.Config{
			TargetProgram: cfg.Delegate.TargetProgram,
			VoucherLimit:  voucherLimitInSmallestUnits(cfg.Delegate.VoucherLimit, cfg.Delegate.BalanceDecimals),
		}, keys, chainClient)
	default:
		return nil, errors.Errorf("unknown delegate mode: %s", cfg.Delegate.Mode)
	}
}

func NewSessionManager(cfg config.Server, backend session.AuthorizationBackend, keys *keystore.Service, chainClient chain.Client, clock time2.Clock, m *metrics.Service) (*session.Manager, error) {
	policy := session.RenewPolicy(cfg.Delegate.RenewPolicy)
	switch policy {
	case session.RenewPolicyReuse, session.RenewPolicyRotate:
	case "":
		policy = session.RenewPolicyReuse
	default:
		return nil, errors.Errorf("unknown renew policy: %s", cfg.Delegate.RenewPolicy)
	}

	return session.NewManager(session.ManagerConfig{
		Program:         cfg.Delegate.TargetProgram,
		RenewPolicy:     policy,
		DefaultDuration: cfg.Delegate.SessionDuration,
	}, backend, keys, chainClient, clock, m)
}

func NewBalanceFormatter(cfg config.Server) (*display.BalanceFormatter, error) {
	return display.NewBalanceFormatter(cfg.Delegate.BalanceDecimals, cfg.Delegate.BalanceUnit)
}

// voucherLimitInSmallestUnits 把整币额度换算成最小货币单位
func voucherLimitInSmallestUnits(limit, decimals int) uint64 {
	if limit <= 0 {
		return 0
	}

	value := uint64(limit)
	for i := 0; i < decimals; i++ {
		value *= 10
	}
	return value
}
