package session

import "time"

// State 会话生命周期状态
type State string

const (
	StateAbsent        State = "absent"
	StatePendingCreate State = "pending_create"
	StateActive        State = "active"
	StateExpired       State = "expired"
	StatePendingRenew  State = "pending_renew"
	StatePendingRevoke State = "pending_revoke"
)

// DeriveState 由 (本地密钥是否存在, 链上授权, 链上时间) 推导状态。
// 纯函数：过期是随读取求值的时间迁移，不依赖定时器回调。
func DeriveState(hasKey bool, auth *Authorization, now time.Time) State {
	if !hasKey || auth == nil {
		return StateAbsent
	}
	if auth.Expired(now) {
		return StateExpired
	}
	return StateActive
}

// canTransition 会话状态迁移表
func canTransition(current, next State) bool {
	switch current {
	case StateAbsent:
		return next == StatePendingCreate
	case StatePendingCreate:
		// 链上确认 -> Active；链上失败 -> 回退 Absent
		return next == StateActive || next == StateAbsent
	case StateActive:
		// 时钟越过过期点 -> Expired；撤销 -> PendingRevoke；自愈 -> Absent
		return next == StateExpired || next == StatePendingRevoke || next == StateAbsent
	case StateExpired:
		return next == StatePendingRenew || next == StatePendingRevoke || next == StateAbsent
	case StatePendingRenew:
		// 成功 -> Active；失败回退 -> Expired
		return next == StateActive || next == StateExpired || next == StateAbsent
	case StatePendingRevoke:
		// 成功 -> Absent；失败回退到撤销前状态
		return next == StateAbsent || next == StateActive || next == StateExpired
	default:
		return false
	}
}
