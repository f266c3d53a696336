package display

import (
	"strings"

	"github.com/pkg/errors"
)

// BalanceFormatter 将最小货币单位的余额格式化为带单位的十进制字符串。
// 纯字符串移位，不经过浮点数，不丢精度。
type BalanceFormatter struct {
	decimals int
	unit     string
}

// NewBalanceFormatter 创建余额格式化器
func NewBalanceFormatter(decimals int, unit string) (*BalanceFormatter, error) {
	if decimals < 0 {
		return nil, errors.New("decimals must not be negative")
	}
	return &BalanceFormatter{
		decimals: decimals,
		unit:     unit,
	}, nil
}

// Format 格式化余额，去掉小数部分的尾随零。
// 例：decimals=12 时 18_500_000_000_000 -> "18.5 VARA"。
func (f *BalanceFormatter) Format(raw uint64) string {
	value := f.FormatValue(raw)
	if f.unit == "" {
		return value
	}
	return value + " " + f.unit
}

// FormatValue 同 Format 但不带单位
func (f *BalanceFormatter) FormatValue(raw uint64) string {
	digits := formatUint(raw)
	if f.decimals == 0 {
		return digits
	}

	for len(digits) <= f.decimals {
		digits = "0" + digits
	}

	whole := digits[:len(digits)-f.decimals]
	frac := strings.TrimRight(digits[len(digits)-f.decimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func formatUint(v uint64) string {
	if v == 0 {
		return "0"
	}

	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
