package pose

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func body(shoulder, hip, knee float64) Pose {
	return Pose{Keypoints: []Keypoint{
		{Name: "nose", Y: 40, Score: 0.9},
		{Name: LeftShoulder, Y: shoulder, Score: 0.9},
		{Name: LeftHip, Y: hip, Score: 0.9},
		{Name: LeftKnee, Y: knee, Score: 0.9},
	}}
}

var (
	standing  = body(100, 200, 300)
	squatting = body(250, 320, 300)
)

func TestPoseY_MissingKeypointIsZero(t *testing.T) {
	assert.Equal(t, 200.0, standing.Y(LeftHip))
	assert.Equal(t, 0.0, standing.Y("right_ankle"))
}

func TestRepCounter_CountsOnTheWayUp(t *testing.T) {
	c := NewRepCounter()
	assert.Equal(t, FeedbackReady, c.Feedback())

	assert.Equal(t, Event{}, c.Observe(standing))
	assert.Equal(t, Event{Feedback: FeedbackDown}, c.Observe(squatting))
	assert.Equal(t, Event{}, c.Observe(squatting), "holding the bottom is not a second descent")
	assert.Equal(t, 0, c.Reps())

	ev := c.Observe(standing)
	assert.Equal(t, Event{Feedback: FeedbackUp, Rep: 1}, ev)
	assert.Equal(t, []string{"Rep 1"}, ev.Announcements())
	assert.Equal(t, 1, c.Reps())
	assert.Equal(t, FeedbackUp, c.Feedback())

	assert.Equal(t, Event{}, c.Observe(standing), "standing again does not double count")
}

func TestRepCounter_LeaningForwardIsNotDown(t *testing.T) {
	c := NewRepCounter()

	c.Observe(body(330, 320, 300))
	c.Observe(standing)

	assert.Equal(t, 0, c.Reps())
}

func TestRepCounter_EveryTenthRepCompletesASet(t *testing.T) {
	c := NewRepCounter()

	var last Event
	for i := 0; i < 2*RepsPerSet; i++ {
		c.Observe(squatting)
		last = c.Observe(standing)
		if i == RepsPerSet-1 {
			assert.True(t, last.SetComplete)
			assert.Equal(t, "Set 1 complete! Take a short break.", last.Feedback)
			assert.Equal(t, []string{"Rep 10", "Set 1 complete! Take a short break."}, last.Announcements())
		}
	}

	assert.Equal(t, Event{Feedback: "Set 2 complete! Take a short break.", Rep: 20, Set: 2, SetComplete: true}, last)
	assert.Equal(t, 20, c.Reps())
	assert.Equal(t, 2, c.Sets())
}

func TestRepCounter_Reset(t *testing.T) {
	c := NewRepCounter()
	c.Observe(squatting)
	c.Observe(standing)
	c.Observe(squatting)

	c.Reset(FeedbackStart)

	assert.Equal(t, 0, c.Reps())
	assert.Equal(t, 0, c.Sets())
	assert.Equal(t, FeedbackStart, c.Feedback())
	assert.Equal(t, Event{}, c.Observe(standing), "reset also clears the down state")
}

type scriptedEstimator struct {
	poses [][]Pose
	err   error
	calls int
}

func (e *scriptedEstimator) EstimatePoses(ctx context.Context, frame image.Image) ([]Pose, error) {
	if e.err != nil {
		return nil, e.err
	}
	i := e.calls
	e.calls++
	if i >= len(e.poses) {
		return nil, nil
	}
	return e.poses[i], nil
}

type fakeAnnouncer struct {
	mu       sync.Mutex
	speaking bool
	said     []string
}

func (f *fakeAnnouncer) Speak(text string) error {
	f.mu.Lock()
	f.said = append(f.said, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeAnnouncer) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func frames(n int) <-chan image.Image {
	ch := make(chan image.Image, n)
	for i := 0; i < n; i++ {
		ch <- image.NewGray(image.Rect(0, 0, 4, 4))
	}
	close(ch)
	return ch
}

func TestTracker_RunCountsAndAnnounces(t *testing.T) {
	est := &scriptedEstimator{poses: [][]Pose{
		{standing}, {squatting}, nil, {standing}, {squatting}, {standing},
	}}
	announcer := &fakeAnnouncer{}
	tr := NewTracker(est, announcer, nil)
	tr.Start()

	require.NoError(t, tr.Run(context.Background(), frames(6)))

	assert.Equal(t, 2, tr.Counter().Reps())
	assert.Equal(t, []string{"Rep 1", "Rep 2"}, announcer.said)
}

func TestTracker_DoesNotTalkOverSpeech(t *testing.T) {
	est := &scriptedEstimator{poses: [][]Pose{{squatting}, {standing}}}
	announcer := &fakeAnnouncer{speaking: true}
	tr := NewTracker(est, announcer, nil)
	tr.Start()

	require.NoError(t, tr.Run(context.Background(), frames(2)))

	assert.Equal(t, 1, tr.Counter().Reps())
	assert.Empty(t, announcer.said)
}

func TestTracker_IgnoresFramesUntilStartedAndWhilePaused(t *testing.T) {
	est := &scriptedEstimator{poses: [][]Pose{{squatting}, {standing}}}
	tr := NewTracker(est, &fakeAnnouncer{}, nil)

	require.NoError(t, tr.Run(context.Background(), frames(2)))
	assert.Zero(t, est.calls)

	tr.Start()
	assert.True(t, tr.TogglePause())
	require.NoError(t, tr.Run(context.Background(), frames(2)))
	assert.Zero(t, est.calls)

	assert.False(t, tr.TogglePause())
	require.NoError(t, tr.Run(context.Background(), frames(2)))
	assert.Equal(t, 1, tr.Counter().Reps())
}

func TestTracker_EstimatorError(t *testing.T) {
	boom := errors.New("backend lost")
	tr := NewTracker(&scriptedEstimator{err: boom}, nil, nil)
	tr.Start()

	err := tr.Run(context.Background(), frames(1))

	assert.ErrorIs(t, err, boom)
}

func TestTracker_StopsOnContext(t *testing.T) {
	tr := NewTracker(&scriptedEstimator{}, nil, nil)
	tr.Start()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Run(ctx, make(chan image.Image))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestTracker_ControlsAndReplay(t *testing.T) {
	announcer := &fakeAnnouncer{}
	tr := NewTracker(&scriptedEstimator{}, announcer, nil)

	tr.Replay()
	assert.Empty(t, announcer.said, "nothing to replay before the workout starts")

	tr.Start()
	assert.True(t, tr.Tracking())
	assert.Equal(t, FeedbackStart, tr.Counter().Feedback())
	tr.Replay()

	tr.Reset()
	assert.Equal(t, FeedbackReady, tr.Counter().Feedback())
	assert.False(t, tr.Paused())

	tr.End()
	assert.False(t, tr.Tracking())
	assert.True(t, tr.Paused())
	assert.Equal(t, FeedbackEnded, tr.Counter().Feedback())
	tr.Replay()

	assert.Equal(t, []string{FeedbackStart, FeedbackEnded}, announcer.said)
}
