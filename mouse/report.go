// Package mouse implements the mouse motion classifier (C5) of the
// bot-detection core.
package mouse

import "github.com/hidshield/botdetect/hid"

// Report is the 4-byte HID boot-protocol mouse input report: byte 0 is the
// button bitmap, byte 1 is signed dX, byte 2 is signed dY, byte 3 is
// padding (spec §3 "Mouse report"). Only bytes 0-2 carry motion semantics;
// byte 3 is zeroed alongside the rest whenever the report is suppressed.
type Report [hid.MouseReportLen]byte

// DX returns the signed horizontal motion delta.
func (r Report) DX() int8 { return int8(r[1]) }

// DY returns the signed vertical motion delta.
func (r Report) DY() int8 { return int8(r[2]) }

func zeroReport(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
