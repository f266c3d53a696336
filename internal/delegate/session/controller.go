package session

import (
	"context"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/metrics"
)

// Config 控制器配置
type Config struct {
	Owner           string
	Program         string
	RenewPolicy     RenewPolicy
	DefaultDuration time.Duration
}

// Controller 负责单个 (owner, program) 会话的生命周期：创建、续期、撤销与
// 状态求值。链上状态是余额/过期的唯一事实来源；本地只持有密钥记录。
// 同一时刻至多一个变更操作在途，并发变更立即拒绝而非排队。
type Controller struct {
	cfg     Config
	backend AuthorizationBackend
	keys    *keystore.Service
	rpc     chain.Client
	clock   time2.Clock
	metrics *metrics.Service
	emitter *Emitter

	mu          sync.RWMutex
	state       State
	auth        *Authorization
	pairAddress string
	// skew = 链上时间 - 本地时钟，在每次链上读取时重新校准；
	// 本地时钟只用于驱动倒计时展示
	skew         time.Duration
	skewValid    bool
	inflight     bool
	lastBalance  uint64
	balanceKnown bool
}

// NewController 创建生命周期控制器
func NewController(cfg Config, backend AuthorizationBackend, keys *keystore.Service, rpc chain.Client, clock time2.Clock, m *metrics.Service) (*Controller, error) {
	if cfg.Owner == "" || cfg.Program == "" {
		return nil, errors.New("owner and program are required")
	}
	if backend == nil || keys == nil || rpc == nil {
		return nil, errors.New("backend, keystore and chain client are required")
	}
	if clock == nil {
		clock = time2.DefaultClock
	}
	if cfg.RenewPolicy == "" {
		cfg.RenewPolicy = RenewPolicyReuse
	}

	return &Controller{
		cfg:     cfg,
		backend: backend,
		keys:    keys,
		rpc:     rpc,
		clock:   clock,
		metrics: m,
		emitter: NewEmitter(),
		state:   StateAbsent,
	}, nil
}

// Events 返回事件分发器（展示层订阅用）
func (c *Controller) Events() *Emitter {
	return c.emitter
}

// Snapshot 返回当前会话视图，不触发任何 I/O
func (c *Controller) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Snapshot{
		State:         c.state,
		Authorization: c.auth,
		PairAddress:   c.pairAddress,
		ChainNow:      c.chainNowLocked(),
	}
}

// Evaluate 重新读取权威状态并推导会话状态。应用启动时的会话恢复、
// 取消操作后的重新同步都走这里。过期判断使用链上时间，规避本地时钟漂移。
func (c *Controller) Evaluate(ctx context.Context) (*Snapshot, error) {
	auth, err := c.backend.Query(ctx, c.cfg.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query authorization")
	}

	chainNow, err := c.syncChainTime(ctx)
	if err != nil {
		// 时间源暂不可用时退回上次校准的偏移
		log.Warn().Err(err).Msg("Chain time unavailable, using last known skew")
		c.mu.RLock()
		chainNow = c.chainNowLocked()
		c.mu.RUnlock()
	}

	pair, err := c.keys.Load(ctx, c.cfg.Program, c.cfg.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load key record")
	}

	// 自愈：本地密钥与链上记录不匹配（链上无记录，或记录绑定了别的地址）
	// 时删除本地密钥并退回 Absent
	if pair != nil {
		mismatch := auth != nil && auth.DelegatedAddress != pair.Address
		orphan := auth == nil
		if mismatch || orphan {
			c.mu.RLock()
			busy := c.inflight
			c.mu.RUnlock()
			if !busy {
				log.Warn().
					Str("program", c.cfg.Program).
					Str("owner", c.cfg.Owner).
					Bool("mismatch", mismatch).
					Msg("Local key does not match on-chain authorization, healing to absent")
				if err := c.keys.Delete(ctx, c.cfg.Program, c.cfg.Owner); err != nil {
					return nil, errors.Wrap(err, "failed to delete stale key record")
				}
				pair = nil
				auth = nil
			}
		}
	}

	state := DeriveState(pair != nil, auth, chainNow)

	c.mu.Lock()
	if !c.inflight {
		c.auth = auth
		if pair != nil {
			c.pairAddress = pair.Address
		} else {
			c.pairAddress = ""
		}
		c.setStateLocked(state)
	}
	snapshot := &Snapshot{
		State:         c.state,
		Authorization: c.auth,
		PairAddress:   c.pairAddress,
		ChainNow:      chainNow,
	}
	c.mu.Unlock()

	return snapshot, nil
}

// Create 创建新会话：Absent -> PendingCreate -> Active。
// 请求校验在任何 I/O 之前完成；链上失败回退 Absent 并返回错误。
func (c *Controller) Create(ctx context.Context, allowedActions []string, duration time.Duration) (*Authorization, error) {
	if duration <= 0 {
		duration = c.cfg.DefaultDuration
	}

	req := &CreateRequest{
		Owner:          c.cfg.Owner,
		AllowedActions: allowedActions,
		Duration:       duration,
	}
	if err := c.backend.Validate(req); err != nil {
		return nil, err
	}

	prev, err := c.beginMutation(StatePendingCreate)
	if err != nil {
		return nil, err
	}

	return c.runMutation(ctx, prev, func(dctx context.Context) (*Authorization, error) {
		return c.backend.Create(dctx, req)
	})
}

// Renew 续期已过期会话：Expired -> PendingRenew -> Active。
// 密钥策略由配置决定：reuse 复用持久化密钥，rotate 生成新密钥。
func (c *Controller) Renew(ctx context.Context, duration time.Duration) (*Authorization, error) {
	if duration <= 0 {
		duration = c.cfg.DefaultDuration
	}

	c.mu.RLock()
	current := c.auth
	c.mu.RUnlock()
	if current == nil {
		return nil, errors.WithStack(ErrInvalidTransition)
	}

	req := &CreateRequest{
		Owner:          c.cfg.Owner,
		AllowedActions: current.AllowedActions,
		Duration:       duration,
	}

	if c.cfg.RenewPolicy == RenewPolicyReuse {
		pair, err := c.keys.Load(ctx, c.cfg.Program, c.cfg.Owner)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load key record")
		}
		req.Pair = pair
	}

	if err := c.backend.Validate(req); err != nil {
		return nil, err
	}

	prev, err := c.beginMutation(StatePendingRenew)
	if err != nil {
		return nil, err
	}

	return c.runMutation(ctx, prev, func(dctx context.Context) (*Authorization, error) {
		return c.backend.Create(dctx, req)
	})
}

// Revoke 撤销会话：Active/Expired -> PendingRevoke -> Absent。
// 本地密钥丢失时无法签署撤销，返回 KeyLost 并保持状态不变。
func (c *Controller) Revoke(ctx context.Context) error {
	pair, err := c.keys.Load(ctx, c.cfg.Program, c.cfg.Owner)
	if err != nil {
		return errors.Wrap(err, "failed to load key record")
	}
	if pair == nil {
		return NewKeyLostError(c.cfg.Program)
	}

	prev, err := c.beginMutation(StatePendingRevoke)
	if err != nil {
		return err
	}

	_, err = c.runMutation(ctx, prev, func(dctx context.Context) (*Authorization, error) {
		if err := c.backend.Revoke(dctx, c.cfg.Owner, pair); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// SendAction 用会话密钥签名并提交一笔动作交易。消费是链上隐式行为：
// 客户端不预扣余额，超支由链上拒绝并按交易上报，不影响会话状态。
func (c *Controller) SendAction(ctx context.Context, action string, payload []byte) (*chain.TxReceipt, error) {
	c.mu.RLock()
	state := c.state
	nonce := uint64(c.chainNowLocked().UnixNano())
	c.mu.RUnlock()

	if state != StateActive {
		return nil, NewInvalidRequestError("session is not active")
	}

	pair, err := c.keys.Load(ctx, c.cfg.Program, c.cfg.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load key record")
	}
	if pair == nil {
		return nil, NewKeyLostError(c.cfg.Program)
	}

	tx, err := chain.SignAction(pair.Secret, c.cfg.Program, action, payload, nonce)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign action")
	}

	start := c.clock.Now()
	receipt, err := c.rpc.SubmitTransaction(ctx, tx)
	c.observeChainCall("submit_transaction", start)
	if err != nil {
		if chain.IsCode(err, chain.CodeInsufficientVoucher) {
			return nil, NewInsufficientVoucherError(c.cfg.Program, err)
		}
		return nil, errors.Wrap(err, "failed to submit action")
	}

	return receipt, nil
}

// Balance 读取权威凭证余额。每次展示相关读取都重新查询：余额会因无关
// 交易而变化，客户端从不缓存、从不本地递减。
func (c *Controller) Balance(ctx context.Context) (*chain.VoucherRecord, error) {
	start := c.clock.Now()
	voucher, err := c.rpc.QueryVoucherBalance(ctx, c.cfg.Owner, c.cfg.Program)
	c.observeChainCall("query_voucher_balance", start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query voucher balance")
	}

	var balance uint64
	if voucher != nil {
		balance = voucher.RemainingBalance
	}

	c.mu.Lock()
	changed := !c.balanceKnown || balance != c.lastBalance
	c.lastBalance = balance
	c.balanceKnown = true
	c.mu.Unlock()

	if changed {
		if c.metrics != nil {
			c.metrics.SetVoucherBalance(c.cfg.Program, balance)
		}
		c.emitter.emit(Event{
			Type:    EventBalanceChanged,
			Balance: balance,
			At:      c.clock.Now(),
		})
	}

	return voucher, nil
}

// Tick 计算剩余时间并发出倒计时事件。由展示层按显示节奏调用，
// 核心不持有定时器。
func (c *Controller) Tick() (time.Duration, bool) {
	c.mu.RLock()
	auth := c.auth
	now := c.chainNowLocked()
	c.mu.RUnlock()

	if auth == nil {
		return 0, false
	}

	remaining := auth.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0, false
	}

	c.emitter.emit(Event{
		Type:      EventCountdownTick,
		Remaining: remaining,
		At:        c.clock.Now(),
	})

	return remaining, true
}

// Close 释放事件订阅
func (c *Controller) Close() {
	c.emitter.Close()
}

// beginMutation 进入变更状态。已有变更在途时立即拒绝；
// 当前状态不允许该迁移时报 ErrInvalidTransition。
func (c *Controller) beginMutation(next State) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight {
		return "", NewSessionBusyError(c.cfg.Program)
	}
	if !canTransition(c.state, next) {
		return "", errors.Wrapf(ErrInvalidTransition, "from %s to %s", c.state, next)
	}

	prev := c.state
	c.inflight = true
	c.setStateLocked(next)
	return prev, nil
}

// runMutation 执行变更操作。链上提交一经广播无法撤回：调用方取消时
// 后台继续等待提交结果，但不应用其状态更新；调用方恢复后必须通过
// Evaluate 重新查询权威状态。
func (c *Controller) runMutation(ctx context.Context, prev State, op func(context.Context) (*Authorization, error)) (*Authorization, error) {
	type result struct {
		auth *Authorization
		err  error
	}

	opID := uuid.New().String()

	resCh := make(chan result, 1)
	go func() {
		auth, err := op(context.WithoutCancel(ctx))
		resCh <- result{auth: auth, err: err}
	}()

	select {
	case res := <-resCh:
		c.mu.Lock()
		c.inflight = false
		if res.err != nil {
			if IsType(res.err, ErrTypeInconsistentState) {
				// 链上授权了一个客户端无法复现的密钥：自愈退回 Absent
				c.auth = nil
				c.pairAddress = ""
				c.setStateLocked(StateAbsent)
			} else {
				c.setStateLocked(prev)
			}
			c.mu.Unlock()
			return nil, res.err
		}

		c.auth = res.auth
		if res.auth != nil {
			c.pairAddress = res.auth.DelegatedAddress
			c.setStateLocked(StateActive)
		} else {
			c.pairAddress = ""
			c.setStateLocked(StateAbsent)
		}
		c.mu.Unlock()
		return res.auth, nil

	case <-ctx.Done():
		go func() {
			res := <-resCh
			c.mu.Lock()
			c.inflight = false
			c.setStateLocked(prev)
			c.mu.Unlock()
			if res.err != nil {
				log.Warn().Err(res.err).Str("op_id", opID).Msg("Detached mutation finished with error after caller cancelled")
			} else {
				log.Info().Str("op_id", opID).Msg("Detached mutation finished after caller cancelled, state must be re-queried")
			}
		}()
		return nil, errors.Wrap(ctx.Err(), "local state update cancelled, re-query authoritative state")
	}
}

func (c *Controller) setStateLocked(next State) {
	if next == c.state {
		return
	}

	prev := c.state
	c.state = next

	if c.metrics != nil {
		c.metrics.ObserveTransition(string(prev), string(next))
	}
	c.emitter.emit(Event{
		Type:  EventStateChanged,
		State: next,
		At:    c.clock.Now(),
	})
}

func (c *Controller) chainNowLocked() time.Time {
	if !c.skewValid {
		return c.clock.Now()
	}
	return c.clock.Now().Add(c.skew)
}

func (c *Controller) syncChainTime(ctx context.Context) (time.Time, error) {
	start := c.clock.Now()
	chainNow, err := c.rpc.ChainTime(ctx)
	c.observeChainCall("chain_time", start)
	if err != nil {
		return time.Time{}, err
	}

	c.mu.Lock()
	c.skew = chainNow.Sub(c.clock.Now())
	c.skewValid = true
	c.mu.Unlock()

	return chainNow, nil
}

func (c *Controller) observeChainCall(method string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveChainCall(method, c.clock.Now().Sub(start))
	}
}
