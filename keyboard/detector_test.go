package keyboard_test

import (
	"testing"

	"github.com/hidshield/botdetect/hid"
	"github.com/hidshield/botdetect/keyboard"
	"github.com/hidshield/botdetect/led"
	"github.com/hidshield/botdetect/lockout"
	"github.com/hidshield/botdetect/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanTypingThroughDetectorNeverSuppresses(t *testing.T) {
	now := uint32(0)
	clock := tick.SourceFunc(func() uint32 { return now })
	ctl := lockout.New(lockout.DefaultConfig(), led.NopSink{})
	d := keyboard.NewDetector(keyboard.DefaultConfig(), ctl, clock, nil)

	var buf keyboard.Report
	for i := 0; i < 20; i++ {
		buf = keyboard.Report{}
		buf[2] = hid.KeyA
		now += 40
		d.OnReport(buf[:])

		buf = keyboard.Report{}
		now += 80 // 80ms hold, 120ms between key-downs
		d.OnReport(buf[:])
	}

	assert.False(t, ctl.Suppressed())
}

func TestBotChatterThroughDetectorZeroesSubsequentReports(t *testing.T) {
	now := uint32(0)
	clock := tick.SourceFunc(func() uint32 { return now })
	ctl := lockout.New(lockout.DefaultConfig(), led.NopSink{})
	d := keyboard.NewDetector(keyboard.DefaultConfig(), ctl, clock, nil)

	tripped := false
	for i := 0; i < 60 && !tripped; i++ {
		var buf keyboard.Report
		if i%2 == 0 {
			buf[2] = hid.KeyA
		} else {
			buf[2] = hid.KeyB
		}
		now += 16
		d.OnReport(buf[:])
		if ctl.Suppressed() {
			tripped = true
			assert.Equal(t, keyboard.Report{}, buf, "a report received while suppressed must be zeroed")
		}
	}

	require.True(t, tripped, "sustained 16ms chatter must eventually trigger the lockout")
	assert.Equal(t, lockout.TemporaryActive, ctl.State)

	// The very next report, even an idle one, must come back zeroed while suppressed.
	var idle keyboard.Report
	now += 5
	d.OnReport(idle[:])
	assert.Equal(t, keyboard.Report{}, idle)
}

func TestRolloverReportReplaysShadowWhenNotSuppressed(t *testing.T) {
	now := uint32(0)
	clock := tick.SourceFunc(func() uint32 { return now })
	ctl := lockout.New(lockout.DefaultConfig(), led.NopSink{})
	d := keyboard.NewDetector(keyboard.DefaultConfig(), ctl, clock, nil)

	var pressed keyboard.Report
	pressed[2] = hid.KeyA
	now += 100
	d.OnReport(pressed[:])

	var rollover keyboard.Report
	for i := 2; i < len(rollover); i++ {
		rollover[i] = hid.KeyRollover
	}
	now += 60
	d.OnReport(rollover[:])

	assert.Equal(t, pressed, rollover, "rollover report must be replaced with the last good shadow")
}

func TestRolloverReportZeroedWhileSuppressed(t *testing.T) {
	now := uint32(0)
	clock := tick.SourceFunc(func() uint32 { return now })
	ctl := lockout.New(lockout.DefaultConfig(), led.NopSink{})
	d := keyboard.NewDetector(keyboard.DefaultConfig(), ctl, clock, nil)
	ctl.Trigger(nil)
	require.True(t, ctl.Suppressed())

	var rollover keyboard.Report
	for i := 2; i < len(rollover); i++ {
		rollover[i] = hid.KeyRollover
	}
	d.OnReport(rollover[:])

	assert.Equal(t, keyboard.Report{}, rollover)
}
