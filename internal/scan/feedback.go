package scan

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Tone is a short fixed-frequency beep.
type Tone struct {
	Frequency float64 // Hz
	Duration  time.Duration
	Gain      float64
}

var (
	// SuccessTone is C5.
	SuccessTone = Tone{Frequency: 523.25, Duration: 150 * time.Millisecond, Gain: 0.1}
	// ErrorTone is C4, an octave below SuccessTone.
	ErrorTone = Tone{Frequency: 261.63, Duration: 150 * time.Millisecond, Gain: 0.1}
)

// Beeper plays a tone. Implementations acquire their output resource per
// call and release it before returning.
type Beeper interface {
	Beep(ctx context.Context, t Tone) error
}

// BeeperFunc adapts a function to Beeper.
type BeeperFunc func(ctx context.Context, t Tone) error

func (f BeeperFunc) Beep(ctx context.Context, t Tone) error { return f(ctx, t) }

// Feedback plays confirmation tones without ever blocking or failing the
// scan flow. A nil Beeper disables audio.
type Feedback struct {
	beeper Beeper
	log    logrus.FieldLogger
}

// NewFeedback creates a Feedback.
func NewFeedback(b Beeper, log logrus.FieldLogger) *Feedback {
	if log == nil {
		log = discardLogger()
	}
	return &Feedback{beeper: b, log: log}
}

// Success plays SuccessTone in the background.
func (f *Feedback) Success() { f.play(SuccessTone) }

// Error plays ErrorTone in the background.
func (f *Feedback) Error() { f.play(ErrorTone) }

func (f *Feedback) play(t Tone) {
	if f == nil || f.beeper == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.log.WithField("panic", fmt.Sprint(r)).Error("Failed to play beep sound.")
			}
		}()
		// Bound the resource to the tone plus a little slack for process startup.
		ctx, cancel := context.WithTimeout(context.Background(), t.Duration+time.Second)
		defer cancel()
		if err := f.beeper.Beep(ctx, t); err != nil {
			f.log.WithError(err).Warn("Failed to play beep sound.")
		}
	}()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
