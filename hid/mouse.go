package hid

// MouseReportLen is the length of the 4-byte HID mouse report this core
// operates on: buttons, dX, dY, and one padding byte. Only bytes 0-2 carry
// motion semantics (see mouse.Report); the padding byte is zeroed alongside
// the rest whenever the report is suppressed.
const MouseReportLen = 4
