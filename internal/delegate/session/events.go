package session

import (
	"sync"
	"time"
)

// EventType 发往展示层的事件类型
type EventType string

const (
	EventStateChanged   EventType = "session-state-changed"
	EventBalanceChanged EventType = "balance-changed"
	EventCountdownTick  EventType = "countdown-tick"
)

// Event 展示层事件。每次实际变化恰好发出一次。
type Event struct {
	Type      EventType
	State     State
	Balance   uint64
	Remaining time.Duration
	At        time.Time
}

// Emitter 事件分发器。订阅者缓冲已满时丢弃事件而非阻塞核心。
type Emitter struct {
	mu     sync.Mutex
	subs   []chan Event
	closed bool
}

// NewEmitter 创建事件分发器
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe 订阅事件流
func (e *Emitter) Subscribe() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan Event, 16)
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Close 关闭所有订阅通道
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}

func (e *Emitter) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
