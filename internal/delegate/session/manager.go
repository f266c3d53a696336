package session

import (
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/metrics"
)

// ManagerConfig 控制器的公共配置（owner 在取用时指定）
type ManagerConfig struct {
	Program         string
	RenewPolicy     RenewPolicy
	DefaultDuration time.Duration
}

// Manager 按 owner 缓存生命周期控制器。同一 owner 的并发请求
// 命中同一个控制器，忙碌拒绝语义由控制器保证。
type Manager struct {
	cfg     ManagerConfig
	backend AuthorizationBackend
	keys    *keystore.Service
	rpc     chain.Client
	clock   time2.Clock
	metrics *metrics.Service

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewManager 创建控制器管理器
func NewManager(cfg ManagerConfig, backend AuthorizationBackend, keys *keystore.Service, rpc chain.Client, clock time2.Clock, m *metrics.Service) (*Manager, error) {
	if cfg.Program == "" {
		return nil, errors.New("program is required")
	}
	if backend == nil || keys == nil || rpc == nil {
		return nil, errors.New("backend, keystore and chain client are required")
	}

	return &Manager{
		cfg:         cfg,
		backend:     backend,
		keys:        keys,
		rpc:         rpc,
		clock:       clock,
		metrics:     m,
		controllers: make(map[string]*Controller),
	}, nil
}

// Controller 返回 owner 对应的控制器，不存在时创建
func (m *Manager) Controller(owner string) (*Controller, error) {
	if owner == "" {
		return nil, errors.New("owner is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if controller, ok := m.controllers[owner]; ok {
		return controller, nil
	}

	controller, err := NewController(Config{
		Owner:           owner,
		Program:         m.cfg.Program,
		RenewPolicy:     m.cfg.RenewPolicy,
		DefaultDuration: m.cfg.DefaultDuration,
	}, m.backend, m.keys, m.rpc, m.clock, m.metrics)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session controller")
	}

	m.controllers[owner] = controller
	return controller, nil
}

// Close 关闭全部控制器
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, controller := range m.controllers {
		controller.Close()
	}
	m.controllers = make(map[string]*Controller)
}
