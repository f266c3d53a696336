package config

import (
	"time"

	"github.com/Males-For-Females-llc/dapps/internal/util"
)

// EchoServer HTTP 服务配置
type EchoServer struct {
	ListenAddress          string
	HideInternalServerErrorDetails bool
}

// LoggerServer 日志配置
type LoggerServer struct {
	Level              string
	PrettyPrintConsole bool
}

// AuthServer API 鉴权配置
type AuthServer struct {
	JWTSecret     string
	JWTIssuer     string
	TokenDuration time.Duration
}

// Delegate 会话委托核心配置
type Delegate struct {
	// Mode 选择授权后端："signless"（能力会话）或 "gasless"（代付凭证）
	Mode            string
	TargetProgram   string
	NodeEndpoint    string
	BackendEndpoint string
	VoucherLimit    int
	AllowedActions  []string
	SessionDuration time.Duration
	// RenewPolicy 续期密钥策略："reuse" 复用已持久化密钥，"rotate" 每次生成新密钥
	RenewPolicy string
	// BalanceDecimals/BalanceUnit 用于余额展示的十进制移位规则
	BalanceDecimals int
	BalanceUnit     string
}

// KeyStore 本地密钥存储配置
type KeyStore struct {
	// Driver："fs" 或 "redis"
	Driver        string
	Path          string
	EncryptionKey string
	RedisEndpoint string
}

// Server is the central configuration struct, built from the environment.
type Server struct {
	Echo     EchoServer
	Logger   LoggerServer
	Auth     AuthServer
	Delegate Delegate
	KeyStore KeyStore
}

// DefaultServiceConfigFromEnv 从环境变量构建配置（未设置时回退默认值）
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Echo: EchoServer{
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":9973"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
		},
		Logger: LoggerServer{
			Level:              util.GetEnv("SERVER_LOGGER_LEVEL", "info"),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Auth: AuthServer{
			JWTSecret:     util.GetEnv("SERVER_AUTH_JWT_SECRET", ""),
			JWTIssuer:     util.GetEnv("SERVER_AUTH_JWT_ISSUER", "dapps-delegate"),
			TokenDuration: util.GetEnvAsDuration("SERVER_AUTH_TOKEN_DURATION", 24*time.Hour),
		},
		Delegate: Delegate{
			Mode:            util.GetEnv("DELEGATE_MODE", "signless"),
			TargetProgram:   util.GetEnv("DELEGATE_TARGET_PROGRAM", ""),
			NodeEndpoint:    util.GetEnv("DELEGATE_NODE_ENDPOINT", "http://localhost:9944"),
			BackendEndpoint: util.GetEnv("DELEGATE_BACKEND_ENDPOINT", ""),
			VoucherLimit:    util.GetEnvAsInt("DELEGATE_VOUCHER_LIMIT", 18),
			AllowedActions:  util.GetEnvAsStringArr("DELEGATE_ALLOWED_ACTIONS", []string{}),
			SessionDuration: util.GetEnvAsDuration("DELEGATE_SESSION_DURATION", time.Hour),
			RenewPolicy:     util.GetEnv("DELEGATE_RENEW_POLICY", "reuse"),
			BalanceDecimals: util.GetEnvAsInt("DELEGATE_BALANCE_DECIMALS", 12),
			BalanceUnit:     util.GetEnv("DELEGATE_BALANCE_UNIT", "VARA"),
		},
		KeyStore: KeyStore{
			Driver:        util.GetEnv("KEYSTORE_DRIVER", "fs"),
			Path:          util.GetEnv("KEYSTORE_PATH", "/var/lib/dapps/keystore"),
			EncryptionKey: util.GetEnv("KEYSTORE_ENCRYPTION_KEY", ""),
			RedisEndpoint: util.GetEnv("KEYSTORE_REDIS_ENDPOINT", ""),
		},
	}
}
