// Package keyboard implements the keyboard event extractor (C3) and timing
// classifier (C4) of the bot-detection core.
package keyboard

import "github.com/hidshield/botdetect/hid"

// Report is an 8-byte HID boot-protocol keyboard input report: byte 0 is
// the modifier bitmap, byte 1 is reserved, and bytes 2-7 hold up to six
// simultaneously pressed key codes (spec §3 "Keyboard report shadow").
type Report [hid.KeyboardReportLen]byte

// HasRollover reports whether any key-array slot carries the HID rollover
// sentinel, meaning more keys are pressed than the report can encode.
func (r Report) HasRollover() bool {
	for i := 2; i < len(r); i++ {
		if r[i] == hid.KeyRollover {
			return true
		}
	}
	return false
}

func (r Report) containsCode(code uint8) bool {
	for i := 2; i < len(r); i++ {
		if r[i] == code {
			return true
		}
	}
	return false
}

// Diff compares a newly received report against the shadow of the last
// observed report and returns the key transitions between them, in the
// order required by spec §5: modifier bits (low to high), then key-array
// key-downs, then key-array key-ups.
func Diff(newReport, shadow Report) []Event {
	var events []Event

	newMod, oldMod := newReport[0], shadow[0]
	for i := 0; i < 8; i++ {
		bit := byte(1) << uint(i)
		newSet := newMod&bit != 0
		oldSet := oldMod&bit != 0
		switch {
		case newSet && !oldSet:
			events = append(events, Event{Kind: KeyDown, Code: hid.ModifierBase + uint8(i)})
		case !newSet && oldSet:
			events = append(events, Event{Kind: KeyUp, Code: hid.ModifierBase + uint8(i)})
		}
	}

	for i := 2; i < len(newReport); i++ {
		code := newReport[i]
		if code < hid.KeyA {
			continue
		}
		if !shadow.containsCode(code) {
			events = append(events, Event{Kind: KeyDown, Code: code})
		}
	}

	for i := 2; i < len(shadow); i++ {
		code := shadow[i]
		if code < hid.KeyA {
			continue
		}
		if !newReport.containsCode(code) {
			events = append(events, Event{Kind: KeyUp, Code: code})
		}
	}

	return events
}

func zeroReport(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
