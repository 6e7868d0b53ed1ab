// Package hid defines the HID report geometry and usage codes shared by the
// keyboard and mouse bot-detection packages.
package hid

// KeyboardReportLen is the length of a boot-protocol keyboard input report:
// one modifier byte, one reserved byte, and six simultaneously pressed keys.
const KeyboardReportLen = 8

// ModifierBase is the first synthetic keycode assigned to the eight modifier
// bits of byte 0 (LCtrl..RGui). The eight codes 0xE0..0xE7 are the HID
// Keyboard/Keypad usages of those modifiers, which lie above the regular key
// codes carried in the key array, so modifier and regular-key codes never
// collide.
const ModifierBase = 0xE0

// KeyRollover is the HID sentinel reported in a key-array slot when more keys
// are pressed than the report can encode (n-key rollover on boot protocol).
const KeyRollover = 0x01

// KeyA is the lowest regular (non-modifier, non-rollover) HID usage code the
// extractor will track. Anything below this — including the rollover
// sentinel and the "no event" zero code — is ignored in the key array.
const KeyA = 0x04

// Keyboard HID usage codes (USB HID Keyboard/Keypad usage page), the subset
// exercised by the classifier's tests and the CLI replay tool.
const (
	KeyB      = 0x05
	KeyC      = 0x06
	KeyD      = 0x07
	KeyEnter  = 0x28
	KeyEscape = 0x29
	KeySpace  = 0x2C
)

// Modifier bit positions within byte 0 of a keyboard report.
const (
	ModLeftCtrl   = 0x01
	ModLeftShift  = 0x02
	ModLeftAlt    = 0x04
	ModLeftGUI    = 0x08
	ModRightCtrl  = 0x10
	ModRightShift = 0x20
	ModRightAlt   = 0x40
	ModRightGUI   = 0x80
)
