package keyboard

import (
	"context"
	"log/slog"

	"github.com/hidshield/botdetect/lockout"
	"github.com/hidshield/botdetect/tick"
)

// Detector is the keyboard channel's single entry point, matching
// onKeyboardReport in spec §6. It owns the report shadow (C3) and the
// timing classifier (C4), and consults/drives a shared lockout.Controller
// (C2).
type Detector struct {
	shadow     Report
	classifier *Classifier
	lockout    *lockout.Controller
	clock      tick.Source
	logger     *slog.Logger
}

// NewDetector builds a keyboard Detector. logger may be nil; when set it
// only receives trace-level diagnostics, never hot-path logging.
func NewDetector(cfg Config, ctl *lockout.Controller, clock tick.Source, logger *slog.Logger) *Detector {
	return &Detector{
		classifier: NewClassifier(cfg),
		lockout:    ctl,
		clock:      clock,
		logger:     logger,
	}
}

// OnReport processes one 8-byte HID keyboard report in place: it extracts
// key events, feeds the timing classifier, consults the lockout predicate,
// and zeroes or replays the report as required by spec §4.3.
func (d *Detector) OnReport(buf []byte) {
	var newReport Report
	copy(newReport[:], buf)

	if newReport.HasRollover() {
		if d.lockout.Suppressed() {
			zeroReport(buf)
		} else {
			copy(buf, d.shadow[:])
		}
		return
	}

	for _, ev := range Diff(newReport, d.shadow) {
		now := d.clock.NowMs()
		switch ev.Kind {
		case KeyDown:
			d.classifier.KeyDown(ev.Code, now)
		case KeyUp:
			d.classifier.KeyUp(ev.Code, now)
		}
	}

	if d.classifier.Tripped() {
		if d.logger != nil {
			d.logger.Log(context.Background(), slog.LevelDebug-4, "keyboard timing classifier tripped")
		}
		d.lockout.Trigger(d.classifier.Reset)
	}

	d.shadow = newReport

	if d.lockout.Suppressed() {
		zeroReport(buf)
	}
}
