package mouse_test

import (
	"testing"

	"github.com/hidshield/botdetect/mouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccelerationThresholdBoundaryDoesNotStartEvent(t *testing.T) {
	// raw velocity = sqrt(10^2+0^2) * VelMult(4) = 40, exactly
	// AccelEventThreshold. Strict greater-than means no event opens, so a
	// report that immediately decelerates hard must NOT be reported as a
	// trip (there was never an event to stop).
	c := mouse.NewClassifier(mouse.DefaultConfig())
	_, tripped := c.Process(10, 0, 0)
	assert.False(t, tripped)

	_, tripped = c.Process(0, 0, 1)
	assert.False(t, tripped, "no acceleration event was open, so nothing can trip on the next report")
}

func TestQuiescenceClampResetsPreviousRawVelocity(t *testing.T) {
	cfg := mouse.DefaultConfig()
	c := mouse.NewClassifier(cfg)

	// Small motion, well under threshold: no acceleration event opens.
	_, tripped := c.Process(5, 0, 0)
	require.False(t, tripped)

	// Long idle period: moveDelay exceeds MoveDelayLimit, clamping it and
	// zeroing PreviousRawVelocity.
	_, tripped = c.Process(0, 0, 200)
	require.False(t, tripped, "no event was active, so quiescence alone must not trip")

	// Raw velocity now equals the threshold exactly (10,0 -> sqrt(100)*4=40).
	// This report is still more than MoveDelayLimit intervals after the last
	// motion (t=0), so it is clamped too and PreviousRawVelocity is 0:
	// rawAcceleration is exactly 40, which is not strictly greater than the
	// threshold.
	_, tripped = c.Process(10, 0, 208)
	assert.False(t, tripped)
}

func TestRapidDecelerationWithinMinAccelTimeTripsLockout(t *testing.T) {
	cfg := mouse.DefaultConfig() // MinAccelTimeMs = 20
	c := mouse.NewClassifier(cfg)

	_, tripped := c.Process(50, 0, 0) // rawVelocity 200, opens a positive-polarity event
	require.False(t, tripped)

	_, tripped = c.Process(1, 0, 5) // rawVelocity ~4, deceleration crosses -threshold after only 5ms
	assert.True(t, tripped, "an acceleration event shorter than MinAccelTimeMs is not plausibly human")
}

func TestDecelerationAfterMinAccelTimeDoesNotTrip(t *testing.T) {
	cfg := mouse.DefaultConfig() // MinAccelTimeMs = 20
	c := mouse.NewClassifier(cfg)

	_, tripped := c.Process(50, 0, 0)
	require.False(t, tripped)

	_, tripped = c.Process(1, 0, 30)
	assert.False(t, tripped, "a 30ms acceleration event is longer than MinAccelTimeMs")
}

func TestConstantVelocityRampRaisesConstantAccelerationCounter(t *testing.T) {
	cfg := mouse.DefaultConfig()
	c := mouse.NewClassifier(cfg)

	now := uint32(0)
	dx := int8(3)
	for i := 0; i < 24; i++ {
		c.Process(dx, 0, now)
		now += cfg.PollIntervalMs
		if dx < 40 {
			dx++
		}
	}

	assert.Greater(t, c.ConstantAccelerationCounter(), uint8(0), "a steady ramp should settle into a matching smoothed acceleration")
	assert.False(t, c.ConstantAccelerationTripped(), "EnableConstantAccelerationLockout defaults to false (spec §9 open question)")
}

func TestResetZeroesHistoryAndConstantAccelerationCounter(t *testing.T) {
	cfg := mouse.DefaultConfig()
	c := mouse.NewClassifier(cfg)

	now := uint32(0)
	dx := int8(3)
	for i := 0; i < 24; i++ {
		c.Process(dx, 0, now)
		now += cfg.PollIntervalMs
		if dx < 40 {
			dx++
		}
	}
	require.Greater(t, c.ConstantAccelerationCounter(), uint8(0))

	c.Reset()
	assert.Equal(t, uint8(0), c.ConstantAccelerationCounter())
}

func TestZeroVelocityReportedWhenNoMotion(t *testing.T) {
	c := mouse.NewClassifier(mouse.DefaultConfig())
	velocity, tripped := c.Process(0, 0, 0)
	assert.Equal(t, uint32(0), velocity)
	assert.False(t, tripped)
}

func TestVelocityWrapsAcross32BitBoundary(t *testing.T) {
	c := mouse.NewClassifier(mouse.DefaultConfig())
	c.Process(5, 0, 4294967290)
	assert.NotPanics(t, func() {
		c.Process(5, 0, 5)
	})
}
