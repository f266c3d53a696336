package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registerOnce sync.Once

	sessionTransitions *prometheus.CounterVec
	chainCallDuration  *prometheus.HistogramVec
	voucherBalance     *prometheus.GaugeVec
)

// Service 暴露会话委托相关指标
type Service struct{}

// New 创建指标服务（指标只注册一次）
func New() *Service {
	ensureMetrics()
	return &Service{}
}

// ObserveTransition 记录一次会话状态迁移
func (s *Service) ObserveTransition(from, to string) {
	ensureMetrics()
	sessionTransitions.WithLabelValues(from, to).Inc()
}

// ObserveChainCall 记录链上调用耗时
func (s *Service) ObserveChainCall(method string, duration time.Duration) {
	if duration < 0 {
		return
	}
	ensureMetrics()
	chainCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SetVoucherBalance 记录最近一次读取到的凭证余额
func (s *Service) SetVoucherBalance(program string, balance uint64) {
	ensureMetrics()
	voucherBalance.WithLabelValues(program).Set(float64(balance))
}

func ensureMetrics() {
	registerOnce.Do(func() {
		sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delegate",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session lifecycle state transitions",
		}, []string{"from", "to"})

		chainCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "delegate",
			Subsystem: "chain",
			Name:      "call_duration_seconds",
			Help:      "Latency of chain RPC calls issued by the delegation core",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method"})

		voucherBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "delegate",
			Subsystem: "voucher",
			Name:      "balance",
			Help:      "Last observed voucher balance in smallest currency units",
		}, []string{"program"})
	})
}
