package mouse

import (
	"context"
	"log/slog"

	"github.com/hidshield/botdetect/lockout"
	"github.com/hidshield/botdetect/tick"
)

// Detector is the mouse channel's single entry point, matching
// onMouseReport in spec §6. It owns the motion classifier (C5) and
// consults/drives a shared lockout.Controller (C2).
type Detector struct {
	classifier *Classifier
	lockout    *lockout.Controller
	clock      tick.Source
	logger     *slog.Logger
}

// NewDetector builds a mouse Detector. logger may be nil; when set it only
// receives trace-level diagnostics, never hot-path logging.
func NewDetector(cfg Config, ctl *lockout.Controller, clock tick.Source, logger *slog.Logger) *Detector {
	return &Detector{
		classifier: NewClassifier(cfg),
		lockout:    ctl,
		clock:      clock,
		logger:     logger,
	}
}

// OnReport processes one 4-byte HID mouse report in place: it feeds the
// motion classifier, zeroes the motion bytes on zero velocity, consults the
// lockout predicate, and zeroes the whole report as required by spec §4.5.
func (d *Detector) OnReport(buf []byte) {
	var r Report
	copy(r[:], buf)

	now := d.clock.NowMs()
	velocity, tripped := d.classifier.Process(r.DX(), r.DY(), now)

	if tripped {
		if d.logger != nil {
			d.logger.Log(context.Background(), slog.LevelDebug-4, "mouse acceleration-event timing tripped")
		}
		d.lockout.Trigger(d.classifier.Reset)
	} else if d.classifier.ConstantAccelerationTripped() {
		if d.logger != nil {
			d.logger.Log(context.Background(), slog.LevelDebug-4, "mouse constant-acceleration counter tripped")
		}
		d.lockout.Trigger(d.classifier.Reset)
	}

	if velocity == 0 {
		buf[1] = 0
		buf[2] = 0
	}

	if d.lockout.Suppressed() {
		zeroReport(buf)
	}
}
