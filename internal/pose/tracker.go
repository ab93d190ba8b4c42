package pose

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"

	"go.uber.org/zap"
)

// Announcer speaks workout cues.
type Announcer interface {
	Speak(text string) error
	Speaking() bool
}

// Tracker runs an estimator over a stream of frames and counts squats.
type Tracker struct {
	estimator Estimator
	announcer Announcer
	counter   *RepCounter
	logger    *zap.Logger

	tracking atomic.Bool
	paused   atomic.Bool
}

func NewTracker(estimator Estimator, announcer Announcer, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		estimator: estimator,
		announcer: announcer,
		counter:   NewRepCounter(),
		logger:    logger,
	}
}

func (t *Tracker) Counter() *RepCounter {
	return t.counter
}

func (t *Tracker) Tracking() bool { return t.tracking.Load() }
func (t *Tracker) Paused() bool   { return t.paused.Load() }

// Start begins a fresh workout.
func (t *Tracker) Start() {
	t.counter.Reset(FeedbackStart)
	t.paused.Store(false)
	t.tracking.Store(true)
}

// TogglePause flips the paused state and reports the new value. Frames that
// arrive while paused are dropped.
func (t *Tracker) TogglePause() bool {
	for {
		old := t.paused.Load()
		if t.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (t *Tracker) Reset() {
	t.counter.Reset(FeedbackReady)
	t.paused.Store(false)
}

// Replay speaks the current feedback again. Nothing is said before the
// workout has produced any feedback.
func (t *Tracker) Replay() {
	if fb := t.counter.Feedback(); fb != "" && fb != FeedbackReady {
		t.announce(fb)
	}
}

func (t *Tracker) End() {
	t.tracking.Store(false)
	t.paused.Store(true)
	t.counter.SetFeedback(FeedbackEnded)
}

// Run feeds frames to the estimator until frames is closed or ctx ends.
// Frames are ignored unless the tracker has been started and is not paused.
func (t *Tracker) Run(ctx context.Context, frames <-chan image.Image) error {
	for {
		var frame image.Image
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			frame = f
		}

		if !t.tracking.Load() || t.paused.Load() {
			continue
		}

		poses, err := t.estimator.EstimatePoses(ctx, frame)
		if err != nil {
			return fmt.Errorf("estimate poses: %w", err)
		}
		if len(poses) == 0 {
			continue
		}

		ev := t.counter.Observe(poses[0])
		for _, phrase := range ev.Announcements() {
			t.announce(phrase)
		}
		if ev.Rep > 0 {
			t.logger.Debug("rep counted",
				zap.Int("rep", ev.Rep),
				zap.Bool("set_complete", ev.SetComplete),
			)
		}
	}
}

// announce never talks over speech already in progress.
func (t *Tracker) announce(text string) {
	if t.announcer == nil || t.announcer.Speaking() {
		return
	}
	if err := t.announcer.Speak(text); err != nil {
		t.logger.Warn("announce failed", zap.Error(err))
	}
}
