package tick_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/hidshield/botdetect/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFuncAdaptsPlainFunction(t *testing.T) {
	var src tick.Source = tick.SourceFunc(func() uint32 { return 42 })
	assert.Equal(t, uint32(42), src.NowMs())
}

func TestSystemClockStartsNearZeroAndAdvances(t *testing.T) {
	clock := tick.NewSystemClock()
	first := clock.NowMs()
	assert.Less(t, first, uint32(50), "a freshly constructed clock's epoch is the construction moment")

	time.Sleep(20 * time.Millisecond)
	second := clock.NowMs()
	assert.Greater(t, second, first, "NowMs must advance with wall-clock time")
}

func TestTickerDeliversEdges(t *testing.T) {
	var edges atomic.Int64
	ticker := tick.StartTicker(func() { edges.Add(1) })
	time.Sleep(25 * time.Millisecond)
	ticker.Stop()

	require.Greater(t, edges.Load(), int64(0), "a running ticker must deliver at least one edge")

	seenAtStop := edges.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, seenAtStop, edges.Load(), "no further edges are delivered after Stop")
}

func TestTickerStopIsIdempotent(t *testing.T) {
	ticker := tick.StartTicker(func() {})
	assert.NotPanics(t, func() {
		ticker.Stop()
		ticker.Stop()
	})
}
