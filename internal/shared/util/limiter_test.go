package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	assert.True(t, l.Allow(1), "first token")
	assert.True(t, l.Allow(1), "second token (burst)")
	assert.False(t, l.Allow(1), "burst exhausted")

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow(1), "refilled after wait")
}

func TestLimiter_WeightAboveBurstNeverPasses(t *testing.T) {
	l := NewLimiter(1000, 1)
	assert.False(t, l.Allow(2))
}
