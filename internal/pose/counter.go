package pose

import (
	"fmt"
	"sync"
)

const RepsPerSet = 10

const (
	FeedbackReady = "Ready to start"
	FeedbackStart = "Start your squat"
	FeedbackDown  = "Down"
	FeedbackUp    = "Up"
	FeedbackEnded = "Workout Ended"
)

func setCompleteFeedback(set int) string {
	return fmt.Sprintf("Set %d complete! Take a short break.", set)
}

// Event is what a single observed pose changed. A zero Event means the pose
// did not move the squat state.
type Event struct {
	Feedback    string
	Rep         int
	Set         int
	SetComplete bool
}

// Announcements are the phrases worth speaking for e, in order.
func (e Event) Announcements() []string {
	var out []string
	if e.Rep > 0 {
		out = append(out, fmt.Sprintf("Rep %d", e.Rep))
	}
	if e.SetComplete {
		out = append(out, setCompleteFeedback(e.Set))
	}
	return out
}

// RepCounter tracks squats from the left side of the body. The subject is
// down once the hip drops below the knee with the shoulder still above the
// hip; a rep counts when the hip comes back above the knee.
type RepCounter struct {
	mu       sync.Mutex
	down     bool
	reps     int
	sets     int
	feedback string
}

func NewRepCounter() *RepCounter {
	return &RepCounter{feedback: FeedbackReady}
}

func (c *RepCounter) Observe(p Pose) Event {
	hip, knee, shoulder := p.Y(LeftHip), p.Y(LeftKnee), p.Y(LeftShoulder)

	c.mu.Lock()
	defer c.mu.Unlock()

	var ev Event
	if hip > knee && shoulder < hip && !c.down {
		c.down = true
		c.feedback = FeedbackDown
		ev.Feedback = FeedbackDown
	}
	if hip < knee && c.down {
		c.down = false
		c.reps++
		c.feedback = FeedbackUp
		ev.Feedback = FeedbackUp
		ev.Rep = c.reps

		if c.reps%RepsPerSet == 0 {
			c.sets++
			c.feedback = setCompleteFeedback(c.sets)
			ev.Feedback = c.feedback
			ev.Set = c.sets
			ev.SetComplete = true
		}
	}
	return ev
}

// Reset clears counts and puts feedback back to feedback.
func (c *RepCounter) Reset(feedback string) {
	c.mu.Lock()
	c.down = false
	c.reps = 0
	c.sets = 0
	c.feedback = feedback
	c.mu.Unlock()
}

func (c *RepCounter) SetFeedback(feedback string) {
	c.mu.Lock()
	c.feedback = feedback
	c.mu.Unlock()
}

func (c *RepCounter) Reps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reps
}

func (c *RepCounter) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func (c *RepCounter) Feedback() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedback
}
