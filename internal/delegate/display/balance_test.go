package display_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/display"
)

func TestFormat(t *testing.T) {
	f, err := display.NewBalanceFormatter(12, "VARA")
	require.NoError(t, err)

	tests := []struct {
		raw  uint64
		want string
	}{
		{0, "0 VARA"},
		{1, "0.000000000001 VARA"},
		{500_000_000_000, "0.5 VARA"},
		{1_000_000_000_000, "1 VARA"},
		{18_000_000_000_000, "18 VARA"},
		{18_500_000_000_000, "18.5 VARA"},
		{18_500_000_000_001, "18.500000000001 VARA"},
		{123_456_789_012_345_678, "123456.789012345678 VARA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Format(tt.raw), "raw=%d", tt.raw)
	}
}

func TestFormatValueWithoutUnit(t *testing.T) {
	f, err := display.NewBalanceFormatter(12, "")
	require.NoError(t, err)

	assert.Equal(t, "18.5", f.Format(18_500_000_000_000))
	assert.Equal(t, "18.5", f.FormatValue(18_500_000_000_000))
}

func TestFormatZeroDecimals(t *testing.T) {
	f, err := display.NewBalanceFormatter(0, "UNIT")
	require.NoError(t, err)

	assert.Equal(t, "42 UNIT", f.Format(42))
}

func TestFormatMaxUint64(t *testing.T) {
	f, err := display.NewBalanceFormatter(12, "")
	require.NoError(t, err)

	// 纯字符串移位，不经过浮点数，最大值也不丢精度
	assert.Equal(t, "18446744.073709551615", f.Format(^uint64(0)))
}

func TestNegativeDecimalsRejected(t *testing.T) {
	_, err := display.NewBalanceFormatter(-1, "VARA")
	require.Error(t, err)
}
