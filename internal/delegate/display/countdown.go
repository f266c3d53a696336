package display

import (
	"fmt"
	"time"
)

// Countdown 剩余有效期的展示拆分
type Countdown struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// SplitRemaining 将剩余时长拆成 天/时/分/秒。
// 已过期（剩余 <= 0）返回 nil，调用方据此切换到过期视图。
func SplitRemaining(remaining time.Duration) *Countdown {
	if remaining <= 0 {
		return nil
	}

	total := int(remaining / time.Second)
	return &Countdown{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// String 形如 "1d 03:25:40" 的展示字符串
func (c *Countdown) String() string {
	if c == nil {
		return "expired"
	}
	if c.Days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", c.Days, c.Hours, c.Minutes, c.Seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}
