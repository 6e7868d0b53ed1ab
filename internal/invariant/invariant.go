// Package invariant provides the halt pathway for conditions the bot-detect
// core considers unreachable given correct HID semantics — see spec §7.
//
// The original firmware's response to these conditions is a non-returning
// `while (1)` loop that starves the report pipeline until a watchdog resets
// the device. A hosted Go process has no watchdog-fed spin loop idiom that
// doesn't also wedge whatever supervises the process, so Halt panics: the
// process crashes visibly (testable, and loud in any log), and an external
// supervisor (systemd, a container orchestrator, or a board's own watchdog)
// is expected to restart it, which is the same recovery story as the
// original hardware watchdog.
package invariant

// Violation is the panic value Halt raises.
type Violation struct {
	Reason string
}

func (v Violation) Error() string { return "botdetect: invariant violation: " + v.Reason }

// Halt raises a Violation panic. It must never be called on any input
// reachable via correct HID semantics with a sufficiently large
// MAX_ACTIVE_KEYS; reaching it is itself the bug report.
func Halt(reason string) {
	panic(Violation{Reason: reason})
}
