package keyboard

import "github.com/hidshield/botdetect/internal/invariant"

// Config holds the compile-time parameters of spec §6 that govern the
// keyboard timing classifier.
type Config struct {
	FastBinWidthMs      uint32
	FastBins            int
	SlowBinWidthMs      uint32
	SlowBins            int
	FastDrainDivider    uint8
	SlowDrainDivider    uint8
	LockoutBinThreshold uint8
	// MaxActiveKeys sizes the KeyTimerLog. Must be >= 14 per spec §3 (8
	// modifier bits + 6 key-array slots).
	MaxActiveKeys int
}

// DefaultConfig matches the values used in spec §8's worked scenarios.
func DefaultConfig() Config {
	return Config{
		FastBinWidthMs:      8,
		FastBins:            8,
		SlowBinWidthMs:      32,
		SlowBins:            8,
		FastDrainDivider:    4,
		SlowDrainDivider:    4,
		LockoutBinThreshold: 5,
		MaxActiveKeys:       14,
	}
}

type keyTimerSlot struct {
	KeyCode      uint8
	KeyDownStart uint32
}

// Classifier implements the fast/slow delay and downtime histograms of
// spec §4.4, including the bounded-drain decay discipline.
type Classifier struct {
	cfg Config

	lastKeyDownTime uint32
	timerLog        []keyTimerSlot

	keyDelayFast    []uint8
	keyDelaySlow    []uint8
	keyDowntimeFast []uint8
	keyDowntimeSlow []uint8

	delayFastDrain    uint8
	delaySlowDrain    uint8
	downtimeFastDrain uint8
	downtimeSlowDrain uint8
}

// NewClassifier allocates a Classifier with all histograms and the
// KeyTimerLog zeroed, per spec §3.
func NewClassifier(cfg Config) *Classifier {
	if cfg.MaxActiveKeys < 14 {
		cfg.MaxActiveKeys = 14
	}
	return &Classifier{
		cfg:             cfg,
		timerLog:        make([]keyTimerSlot, cfg.MaxActiveKeys),
		keyDelayFast:    make([]uint8, cfg.FastBins),
		keyDelaySlow:    make([]uint8, cfg.SlowBins),
		keyDowntimeFast: make([]uint8, cfg.FastBins),
		keyDowntimeSlow: make([]uint8, cfg.SlowBins),
	}
}

func incSaturating(bins []uint8, idx int) {
	if bins[idx] < 255 {
		bins[idx]++
	}
}

func drain(bins []uint8) {
	for i := range bins {
		if bins[i] > 0 {
			bins[i]--
		}
	}
}

// recordInterval implements the shared fast/slow bin-assignment and drain
// logic of spec §4.4 steps 2-3, used identically by KeyDown (against
// KeyDelay*) and KeyUp (against KeyDowntime*). The fast and downtime paths
// keep entirely separate drain counters per channel, per the §9 design
// note warning against accidentally unifying them.
func (c *Classifier) recordInterval(delay uint32, fastBins, slowBins []uint8, fastDrain, slowDrain *uint8) {
	fastRange := c.cfg.FastBinWidthMs * uint32(c.cfg.FastBins)
	if delay < fastRange {
		bin := delay / c.cfg.FastBinWidthMs
		incSaturating(fastBins, int(bin))

		*fastDrain++
		if *fastDrain >= c.cfg.FastDrainDivider {
			*fastDrain = 0
			drain(fastBins)
		}
		return
	}

	slowRange := c.cfg.SlowBinWidthMs * uint32(c.cfg.SlowBins)
	wrapped := delay % slowRange
	bin := wrapped / c.cfg.SlowBinWidthMs
	incSaturating(slowBins, int(bin))

	*slowDrain++
	if *slowDrain >= c.cfg.SlowDrainDivider {
		*slowDrain = 0
		drain(slowBins)
	}
}

// KeyDown records a key-down event at time now (ms), bins the delay since
// the previous key-down, and reserves a KeyTimerLog slot for the key.
func (c *Classifier) KeyDown(code uint8, now uint32) {
	delay := now - c.lastKeyDownTime // unsigned subtraction wraps mod 2^32
	c.recordInterval(delay, c.keyDelayFast, c.keyDelaySlow, &c.delayFastDrain, &c.delaySlowDrain)
	c.lastKeyDownTime = now

	for i := range c.timerLog {
		if c.timerLog[i].KeyCode == 0 {
			c.timerLog[i] = keyTimerSlot{KeyCode: code, KeyDownStart: now}
			return
		}
	}
	invariant.Halt("KeyTimerLog exhausted on key-down")
}

// KeyUp records a key-up event at time now (ms), bins the downtime of the
// key, and frees its KeyTimerLog slot.
func (c *Classifier) KeyUp(code uint8, now uint32) {
	for i := range c.timerLog {
		if c.timerLog[i].KeyCode == code {
			start := c.timerLog[i].KeyDownStart
			c.timerLog[i] = keyTimerSlot{}
			downtime := now - start
			c.recordInterval(downtime, c.keyDowntimeFast, c.keyDowntimeSlow, &c.downtimeFastDrain, &c.downtimeSlowDrain)
			return
		}
	}
	invariant.Halt("KeyTimerLog has no entry for key-up")
}

// Tripped implements the once-per-report lockout check of spec §4.4: any
// bin in any of the four histograms strictly exceeding LockoutBinThreshold.
func (c *Classifier) Tripped() bool {
	for _, bins := range [][]uint8{c.keyDelayFast, c.keyDelaySlow, c.keyDowntimeFast, c.keyDowntimeSlow} {
		for _, v := range bins {
			if v > c.cfg.LockoutBinThreshold {
				return true
			}
		}
	}
	return false
}

// Reset zeroes all four histograms on lockout entry. Drain counters are
// intentionally left alone, preserving the original's harmless quirk
// (spec §4.4).
func (c *Classifier) Reset() {
	for _, bins := range [][]uint8{c.keyDelayFast, c.keyDelaySlow, c.keyDowntimeFast, c.keyDowntimeSlow} {
		for i := range bins {
			bins[i] = 0
		}
	}
}
