package keyboard_test

import (
	"testing"

	"github.com/hidshield/botdetect/hid"
	"github.com/hidshield/botdetect/keyboard"
	"github.com/stretchr/testify/assert"
)

func TestDiffModifierEdges(t *testing.T) {
	var shadow keyboard.Report
	newReport := shadow
	newReport[0] = hid.ModLeftCtrl

	events := keyboard.Diff(newReport, shadow)
	assert.Equal(t, []keyboard.Event{{Kind: keyboard.KeyDown, Code: hid.ModifierBase}}, events)

	events = keyboard.Diff(shadow, newReport)
	assert.Equal(t, []keyboard.Event{{Kind: keyboard.KeyUp, Code: hid.ModifierBase}}, events)
}

func TestDiffKeyArrayDownThenUp(t *testing.T) {
	var shadow keyboard.Report
	pressed := shadow
	pressed[2] = hid.KeyB

	downs := keyboard.Diff(pressed, shadow)
	assert.Equal(t, []keyboard.Event{{Kind: keyboard.KeyDown, Code: hid.KeyB}}, downs)

	ups := keyboard.Diff(shadow, pressed)
	assert.Equal(t, []keyboard.Event{{Kind: keyboard.KeyUp, Code: hid.KeyB}}, ups)
}

func TestDiffIgnoresCodesBelowKeyA(t *testing.T) {
	var shadow keyboard.Report
	pressed := shadow
	pressed[2] = 0x02 // below hid.KeyA, must be ignored

	assert.Empty(t, keyboard.Diff(pressed, shadow))
}

func TestDiffSameReportTwiceEmitsNothing(t *testing.T) {
	var r keyboard.Report
	r[0] = hid.ModLeftShift
	r[2] = hid.KeyC

	assert.Empty(t, keyboard.Diff(r, r), "feeding the same report twice must emit no events")
}

func TestDiffOrderingModifiersBeforeKeyArray(t *testing.T) {
	var shadow keyboard.Report
	newReport := shadow
	newReport[0] = hid.ModLeftCtrl
	newReport[2] = hid.KeyB

	events := keyboard.Diff(newReport, shadow)
	assert.Equal(t, []keyboard.Event{
		{Kind: keyboard.KeyDown, Code: hid.ModifierBase},
		{Kind: keyboard.KeyDown, Code: hid.KeyB},
	}, events)
}

func TestDiffSimultaneousDownAndUpAcrossOneBoundary(t *testing.T) {
	var shadow keyboard.Report
	shadow[2] = hid.KeyB
	newReport := shadow
	newReport[2] = hid.KeyC // B released, C pressed in the same report

	events := keyboard.Diff(newReport, shadow)
	assert.Len(t, events, 2)
	assert.Contains(t, events, keyboard.Event{Kind: keyboard.KeyDown, Code: hid.KeyC})
	assert.Contains(t, events, keyboard.Event{Kind: keyboard.KeyUp, Code: hid.KeyB})
}

func TestHasRollover(t *testing.T) {
	var r keyboard.Report
	assert.False(t, r.HasRollover())
	r[4] = hid.KeyRollover
	assert.True(t, r.HasRollover())
}
