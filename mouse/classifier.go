package mouse

import "math"

// Config holds the compile-time parameters of spec §6 that govern the
// mouse motion classifier.
type Config struct {
	// MoveDelayLimit clamps moveDelay (in poll intervals) once the mouse has
	// been quiescent for that many intervals.
	MoveDelayLimit uint32
	// AccelEventThreshold is the raw-acceleration magnitude that opens an
	// acceleration event.
	AccelEventThreshold int32
	// MinAccelTimeMs is the minimum plausible acceleration-event duration;
	// anything shorter trips lockout.
	MinAccelTimeMs uint32
	// VelMult scales the floating-point sqrt result into an integer-safe
	// raw velocity, preserving sub-unit precision.
	VelMult float64
	// VelHistSize is the velocity-history ring length. Must be even and >= 4.
	VelHistSize int
	// VelMatchError / VelMatchBase form the relative tolerance band
	// (VelMatchError / VelMatchBase) used to judge a constant-acceleration match.
	VelMatchError uint32
	VelMatchBase  uint32
	// PollIntervalMs is the USB full-speed polling interval used to convert
	// elapsed time into poll-interval units.
	PollIntervalMs uint32
	// EnableConstantAccelerationLockout gates the ConstantAccelerationCounter
	// trip path. Disabled by default: the original source computes the
	// counter but ships with its lockout check commented out (spec §9 open
	// question) — this flag makes that choice explicit rather than silent.
	EnableConstantAccelerationLockout bool
	// ConstantAccelerationLockoutThreshold is the counter value that trips
	// lockout when EnableConstantAccelerationLockout is true.
	ConstantAccelerationLockoutThreshold uint8
	// SqrtFunc computes the velocity magnitude. Defaults to math.Sqrt; a
	// build targeting a soft-float embedded target may substitute a
	// fixed-point approximation without touching any other detection logic.
	SqrtFunc func(float64) float64
}

// DefaultConfig matches the values used in spec §8's worked scenarios.
func DefaultConfig() Config {
	return Config{
		MoveDelayLimit:                       10,
		AccelEventThreshold:                  40,
		MinAccelTimeMs:                       20,
		VelMult:                              4,
		VelHistSize:                          8,
		VelMatchError:                        1,
		VelMatchBase:                         4,
		PollIntervalMs:                       8,
		EnableConstantAccelerationLockout:    false,
		ConstantAccelerationLockoutThreshold: 7,
		SqrtFunc:                             math.Sqrt,
	}
}

type accelEvent struct {
	// Polarity is 0 when no event is in progress, matching the original's
	// sentinel, or +1/-1 for the sign of the acceleration driving it.
	Polarity    int8
	StartTimeMs uint32
}

// Classifier implements the velocity/acceleration-event/constant-
// acceleration logic of spec §4.5.
type Classifier struct {
	cfg Config

	previousRawVelocity uint32
	lastMouseMoveTime   uint32
	accel               accelEvent

	velocityHistory              []uint16
	previousSmoothedAcceleration int32
	constantAccelerationCounter  uint8
}

// NewClassifier allocates a Classifier with its velocity history and
// acceleration state zeroed, per spec §3.
func NewClassifier(cfg Config) *Classifier {
	if cfg.VelHistSize < 4 {
		cfg.VelHistSize = 4
	}
	if cfg.PollIntervalMs == 0 {
		cfg.PollIntervalMs = 1
	}
	if cfg.SqrtFunc == nil {
		cfg.SqrtFunc = math.Sqrt
	}
	return &Classifier{
		cfg:             cfg,
		velocityHistory: make([]uint16, cfg.VelHistSize),
	}
}

func sign(v int32) int8 {
	if v > 0 {
		return 1
	}
	return -1
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// stopAccelEvent implements Upstream_HID_BotDetectMouse_AccelEventStop: it
// closes the current event and reports whether its duration was too short
// to be plausibly human.
func (c *Classifier) stopAccelEvent(stopTime uint32) bool {
	duration := stopTime - c.accel.StartTimeMs // unsigned subtraction wraps mod 2^32
	c.accel.Polarity = 0
	return duration < c.cfg.MinAccelTimeMs
}

func (c *Classifier) startAccelEvent(rawAcceleration int32, now uint32) {
	c.accel.Polarity = sign(rawAcceleration)
	c.accel.StartTimeMs = now
}

// Process handles one mouse report's dX/dY pair at time now (ms) and
// reports whether an acceleration-event timing trip occurred. velocity is
// the normalised (per poll-interval) speed magnitude; callers zero the
// report's motion bytes when velocity == 0, per spec §4.5.
func (c *Classifier) Process(dx, dy int8, now uint32) (velocity uint32, tripped bool) {
	rawVelocity := uint32(math.Round(c.cfg.SqrtFunc(float64(int32(dx)*int32(dx)+int32(dy)*int32(dy))) * c.cfg.VelMult))

	elapsed := now - c.lastMouseMoveTime // unsigned subtraction wraps mod 2^32
	moveDelay := (elapsed + c.cfg.PollIntervalMs/2) / c.cfg.PollIntervalMs

	if moveDelay > c.cfg.MoveDelayLimit {
		moveDelay = c.cfg.MoveDelayLimit
		c.previousRawVelocity = 0
		if c.accel.Polarity != 0 {
			if c.stopAccelEvent(c.lastMouseMoveTime) {
				tripped = true
			}
		}
	}
	if moveDelay == 0 {
		moveDelay = 1 // two reports at the same instant: avoid a divide-by-zero the original never has to guard against
	}

	rawAcceleration := int32(rawVelocity) - int32(c.previousRawVelocity)
	c.previousRawVelocity = rawVelocity
	velocity = rawVelocity / moveDelay

	if c.accel.Polarity == 0 {
		if absInt32(rawAcceleration) > c.cfg.AccelEventThreshold {
			c.startAccelEvent(rawAcceleration, now)
		}
	} else if (c.accel.Polarity == 1 && rawAcceleration < -c.cfg.AccelEventThreshold) ||
		(c.accel.Polarity == -1 && rawAcceleration > c.cfg.AccelEventThreshold) {
		if c.stopAccelEvent(now) {
			tripped = true
		}
		c.startAccelEvent(rawAcceleration, now)
	}

	if velocity != 0 {
		c.lastMouseMoveTime = now
		c.recordVelocity(uint16(velocity))
	}

	return velocity, tripped
}

func (c *Classifier) recordVelocity(velocity uint16) {
	for i := len(c.velocityHistory) - 1; i > 0; i-- {
		c.velocityHistory[i] = c.velocityHistory[i-1]
	}
	c.velocityHistory[0] = velocity

	if c.velocityHistory[len(c.velocityHistory)-1] == 0 {
		return // history not yet full
	}

	half := len(c.velocityHistory) / 2
	var newerSum, olderSum uint32
	for i := 0; i < half; i++ {
		newerSum += uint32(c.velocityHistory[i])
	}
	for i := half; i < len(c.velocityHistory); i++ {
		olderSum += uint32(c.velocityHistory[i])
	}
	newSmoothed := (newerSum * 8) / uint32(half)
	oldSmoothed := (olderSum * 8) / uint32(half)

	newSmoothedAcceleration := int32(newSmoothed) - int32(oldSmoothed)
	matchError := int32(oldSmoothed*c.cfg.VelMatchError) / int32(c.cfg.VelMatchBase)

	if newSmoothedAcceleration >= c.previousSmoothedAcceleration-matchError &&
		newSmoothedAcceleration <= c.previousSmoothedAcceleration+matchError {
		if c.constantAccelerationCounter < 255 {
			c.constantAccelerationCounter++
		}
	} else {
		c.constantAccelerationCounter = 0
	}
	c.previousSmoothedAcceleration = newSmoothedAcceleration
}

// ConstantAccelerationTripped reports whether the constant-acceleration
// counter has crossed the configured threshold. Always false unless
// EnableConstantAccelerationLockout is set (spec §9 open question).
func (c *Classifier) ConstantAccelerationTripped() bool {
	return c.cfg.EnableConstantAccelerationLockout &&
		c.constantAccelerationCounter > c.cfg.ConstantAccelerationLockoutThreshold
}

// ConstantAccelerationCounter exposes the raw counter for observability/tests.
func (c *Classifier) ConstantAccelerationCounter() uint8 {
	return c.constantAccelerationCounter
}

// Reset zeroes the velocity history and constant-acceleration counter on
// lockout entry, per spec §4.5 "Lockout entry reset". The acceleration-event
// timing state is left untouched, matching the original: only the
// constant-acceleration detector's state is cleared on a temporary lockout.
func (c *Classifier) Reset() {
	for i := range c.velocityHistory {
		c.velocityHistory[i] = 0
	}
	c.constantAccelerationCounter = 0
}
