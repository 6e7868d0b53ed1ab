// Package lockout implements the shared lockout state machine (C2): a
// three-stage escalation — inactive, temporary, permanent — driven by a 1ms
// tick and triggered by either the keyboard or mouse classifier.
//
// qmuntal/stateless (used elsewhere in the retrieved example pack for a
// general-purpose FSM) was considered and rejected here: its Fire/FireCtx
// path spawns a goroutine and selects on a context timeout per transition,
// which is exactly the blocking, allocating behavior spec §5 rules out for
// a callback that "may execute from an interrupt context" and must "never
// block". A plain switch over State, as below, is the faithful port of the
// original's inline enum transitions and costs nothing per tick.
package lockout

import "github.com/hidshield/botdetect/led"

// State is one of the four lockout phases.
type State int

const (
	// Inactive is the normal, non-suppressing state.
	Inactive State = iota
	// TemporaryActive suppresses host delivery and has raised the LED.
	TemporaryActive
	// TemporaryFlashing is a cool-down: delivery resumes, LED still animates.
	TemporaryFlashing
	// PermanentActive is terminal: delivery stays suppressed forever.
	PermanentActive
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case TemporaryActive:
		return "temporary-active"
	case TemporaryFlashing:
		return "temporary-flashing"
	case PermanentActive:
		return "permanent-active"
	default:
		return "unknown"
	}
}

// Config holds the two duration tunables from spec §6.
//
// TemporaryLockoutTimeMs is NOT reset when TemporaryActive decays into
// TemporaryFlashing (spec §3: it resets "on entry into TemporaryActive"
// only, and increments "while in TemporaryActive or TemporaryFlashing" —
// one continuously-running counter across both phases, exactly as in
// original_source's Upstream_HID_BotDetect_Systick). So TempLockoutFlashMs
// is an absolute threshold measured from the moment TemporaryActive was
// entered, not a duration added once flashing starts: the actual time
// spent flashing is TempLockoutFlashMs - TempLockoutMs, and
// TempLockoutFlashMs must exceed TempLockoutMs for the flashing phase to
// be observable at all.
type Config struct {
	// TempLockoutMs is the counter value at which TemporaryActive decays to
	// TemporaryFlashing.
	TempLockoutMs uint32
	// TempLockoutFlashMs is the counter value at which TemporaryFlashing
	// decays to Inactive. Must be greater than TempLockoutMs.
	TempLockoutFlashMs uint32
}

// DefaultConfig matches the durations used in spec §8's worked scenarios:
// a 3000ms temporary lockout followed by roughly 1000ms of LED flashing.
func DefaultConfig() Config {
	return Config{
		TempLockoutMs:      3000,
		TempLockoutFlashMs: 4000,
	}
}

// Controller holds LockoutState and TemporaryLockoutTimeMs (spec §3) and
// implements the C2 transitions of spec §4.1.
//
// A Controller is shared by exactly one report-context caller and one
// tick-context caller, per spec §5; both write State and
// TemporaryLockoutTimeMs (the report context only on entry into
// TemporaryActive). State is a plain
// int and every write here happens either on the report-processing
// goroutine or serialized through Tick; callers that actually run the tick
// from a real interrupt/separate goroutine must provide their own memory
// barrier (e.g. route both contexts through the same event loop, or make
// State an atomic.Int32) — this Controller assumes the common hosted-Go
// shape where both contexts are invoked from the same goroutine, or external
// synchronization already serializes them, matching how the original
// firmware relies on a single-word store being interrupt-atomic on its
// target rather than taking a lock.
type Controller struct {
	cfg Config
	led led.Sink

	State                  State
	TemporaryLockoutTimeMs uint32
}

// New creates a Controller in the Inactive state.
func New(cfg Config, sink led.Sink) *Controller {
	if sink == nil {
		sink = led.NopSink{}
	}
	return &Controller{cfg: cfg, led: sink, State: Inactive}
}

// Suppressed implements the hostSuppressed() predicate of spec §4.1: true
// iff the state is TemporaryActive or PermanentActive. TemporaryFlashing is
// a cool-down during which the host is NOT suppressed.
func (c *Controller) Suppressed() bool {
	return c.State == TemporaryActive || c.State == PermanentActive
}

// Trigger implements the Inactive->TemporaryActive and
// {TemporaryActive,TemporaryFlashing}->PermanentActive transitions shared
// by both classifiers (spec §4.1, §4.4, §4.5). reset is invoked to clear
// the triggering channel's own counters — and only that channel's, per the
// §9 design note that a key-chatter trip must not erase mouse evidence and
// vice versa — but only when the trigger actually enters TemporaryActive
// from Inactive; escalating straight to PermanentActive resets nothing.
func (c *Controller) Trigger(reset func()) {
	switch c.State {
	case PermanentActive:
		return
	case TemporaryActive, TemporaryFlashing:
		c.State = PermanentActive
		return
	default: // Inactive
		if reset != nil {
			reset()
		}
		c.TemporaryLockoutTimeMs = 0
		c.State = TemporaryActive
		c.led.SetState(led.FlashBotdetect)
	}
}

// Tick implements onMillisecondTick (spec §4.1, §6): at most one state
// transition and at most one counter increment per call, never blocking.
func (c *Controller) Tick() {
	switch c.State {
	case TemporaryActive:
		c.TemporaryLockoutTimeMs++
		if c.TemporaryLockoutTimeMs > c.cfg.TempLockoutMs {
			c.State = TemporaryFlashing
		}
	case TemporaryFlashing:
		c.TemporaryLockoutTimeMs++
		if c.TemporaryLockoutTimeMs > c.cfg.TempLockoutFlashMs {
			c.led.SetState(led.Off)
			c.State = Inactive
		}
	}
}
