package mouse_test

import (
	"testing"

	"github.com/hidshield/botdetect/mouse"
	"github.com/stretchr/testify/assert"
)

func TestReportDXDYSigned(t *testing.T) {
	var r mouse.Report
	r[1] = 0xFE // -2
	r[2] = 0x05 // 5
	assert.Equal(t, int8(-2), r.DX())
	assert.Equal(t, int8(5), r.DY())
}
