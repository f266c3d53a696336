package display_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/display"
)

func TestSplitRemaining(t *testing.T) {
	c := display.SplitRemaining(26*time.Hour + 3*time.Minute + 40*time.Second)
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Days)
	assert.Equal(t, 2, c.Hours)
	assert.Equal(t, 3, c.Minutes)
	assert.Equal(t, 40, c.Seconds)
}

func TestSplitRemainingExpired(t *testing.T) {
	assert.Nil(t, display.SplitRemaining(0))
	assert.Nil(t, display.SplitRemaining(-time.Second))
}

func TestSplitRemainingSubSecond(t *testing.T) {
	// 不足一秒仍视为未过期，展示为全零
	c := display.SplitRemaining(500 * time.Millisecond)
	require.NotNil(t, c)
	assert.Zero(t, c.Days)
	assert.Zero(t, c.Seconds)
}

func TestCountdownString(t *testing.T) {
	assert.Equal(t, "1d 02:03:40", display.SplitRemaining(26*time.Hour+3*time.Minute+40*time.Second).String())
	assert.Equal(t, "02:03:40", display.SplitRemaining(2*time.Hour+3*time.Minute+40*time.Second).String())
	assert.Equal(t, "expired", display.SplitRemaining(0).String())
}
